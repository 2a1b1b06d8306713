package cmd_test

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedibtc/minimint/cmd"
	"github.com/fedibtc/minimint/config"
	"github.com/fedibtc/minimint/engine/gateway"
	"github.com/fedibtc/minimint/module/random"
	"github.com/fedibtc/minimint/module/signature"
	"github.com/fedibtc/minimint/utils/unittest"
)

func freeAddress(t *testing.T) string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().String()
}

// singleNodeConfig returns the configuration of a federation with a single member.
func singleNodeConfig(t *testing.T, dir string) (*config.NodeConfig, *signature.PublicKeySet) {
	keys, shares, err := signature.Deal(random.NewCryptoGenerator(), 1, 1)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.DataDir = dir
	cfg.MetricsAddress = ""
	cfg.Gateway.Address = "127.0.0.1:0"
	cfg.Peers = []config.PeerConfig{{ID: 0, Address: "tcp://" + freeAddress(t)}}
	cfg.Driver.NominalPeriod = 20 * time.Millisecond
	cfg.Driver.FastRetryPeriod = 10 * time.Millisecond
	require.NoError(t, cfg.EncodeKeys(keys, shares[0]))
	return cfg, keys
}

// runNode starts a node and returns a function stopping it gracefully.
func runNode(t *testing.T, cfg *config.NodeConfig) (*cmd.Node, func()) {
	node, err := cmd.NewNode(unittest.Logger(), cfg, prometheus.NewRegistry())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() {
		result <- node.Run(ctx)
	}()
	unittest.RequireCloseBefore(t, node.Ready(), 5*time.Second, "node did not start")

	return node, func() {
		cancel()
		select {
		case err := <-result:
			require.NoError(t, err)
		case <-time.After(10 * time.Second):
			t.Fatal("node did not stop")
		}
	}
}

func getSignatures(t *testing.T, node *cmd.Node, id string) (int, gateway.SigResponse) {
	resp, err := http.Get(fmt.Sprintf("http://%s/v1/requests/%s", node.Gateway.Address(), id))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body gateway.SigResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp.StatusCode, body
}

// a single member federation signs a request end to end and still serves the
// signatures after a restart
func TestNode_SingleMemberIssuance(t *testing.T) {
	unittest.RunWithTempDir(t, func(dir string) {
		cfg, keys := singleNodeConfig(t, dir)
		node, stop := runNode(t, cfg)

		messages := [][]byte{[]byte("blinded note 1"), []byte("blinded note 2")}
		body := gateway.RequestBody{}
		for _, msg := range messages {
			body.Messages = append(body.Messages, hex.EncodeToString(msg))
		}
		encoded, err := json.Marshal(body)
		require.NoError(t, err)

		resp, err := http.Post(fmt.Sprintf("http://%s/v1/requests", node.Gateway.Address()), "application/json", bytes.NewReader(encoded))
		require.NoError(t, err)
		var submitted gateway.SubmitResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&submitted))
		resp.Body.Close()
		require.Equal(t, http.StatusAccepted, resp.StatusCode)

		var signed gateway.SigResponse
		require.Eventually(t, func() bool {
			var code int
			code, signed = getSignatures(t, node, submitted.ID)
			return code == http.StatusOK
		}, 5*time.Second, 20*time.Millisecond)

		require.Len(t, signed.Signatures, len(messages))
		for i, msg := range messages {
			sig, err := hex.DecodeString(signed.Signatures[i])
			require.NoError(t, err)
			assert.NoError(t, keys.Verify(msg, sig))
		}
		stop()

		// the ledger outlives the process
		node, stop = runNode(t, cfg)
		defer stop()
		code, restored := getSignatures(t, node, submitted.ID)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, signed, restored)
		assert.Greater(t, node.Driver.Epoch(), signed.Epoch)
	})
}

func TestNewNode_InvalidConfig(t *testing.T) {
	_, err := cmd.NewNode(unittest.Logger(), config.Default(), prometheus.NewRegistry())
	assert.Error(t, err)
}
