package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fedibtc/minimint/config"
	"github.com/fedibtc/minimint/module/random"
	"github.com/fedibtc/minimint/module/signature"
)

var (
	flagOutdir    string
	flagPeers     int
	flagThreshold int
	flagHost      string
	flagBasePort  int
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Deal threshold keys and write a configuration file for every federation member",
	Long: `Acts as a trusted dealer: generates a threshold key for the federation and
writes peer-<id>.yml for every member. Member i listens for peers on base-port+i,
serves clients on base-port+100+i and metrics on base-port+200+i.`,
	Run: keygen,
}

func init() {
	keygenCmd.Flags().StringVarP(&flagOutdir, "outdir", "o", "federation",
		"output directory for generated files")
	keygenCmd.Flags().IntVarP(&flagPeers, "peers", "n", 4, "number of federation members")
	keygenCmd.Flags().IntVarP(&flagThreshold, "threshold", "t", 0,
		"signature shares needed to sign, defaults to n-(n-1)/3")
	keygenCmd.Flags().StringVar(&flagHost, "host", "127.0.0.1", "host every member binds to")
	keygenCmd.Flags().IntVar(&flagBasePort, "base-port", 5000, "first port of the generated address range")
}

func keygen(_ *cobra.Command, _ []string) {
	if flagPeers < 1 {
		log.Fatal().Int("peers", flagPeers).Msg("federation needs at least one member")
	}
	threshold := flagThreshold
	if threshold == 0 {
		threshold = flagPeers - (flagPeers-1)/3
	}

	keys, shares, err := signature.Deal(random.NewCryptoGenerator(), threshold, flagPeers)
	if err != nil {
		log.Fatal().Err(err).Msg("could not deal threshold keys")
	}

	peers := make([]config.PeerConfig, 0, flagPeers)
	for i := 0; i < flagPeers; i++ {
		peers = append(peers, config.PeerConfig{
			ID:      uint16(i),
			Address: fmt.Sprintf("tcp://%s:%d", flagHost, flagBasePort+i),
		})
	}

	err = os.MkdirAll(flagOutdir, 0755)
	if err != nil {
		log.Fatal().Err(err).Msg("could not create output dir")
	}

	for i, share := range shares {
		cfg := config.Default()
		cfg.PeerID = uint16(i)
		cfg.Peers = peers
		cfg.DataDir = filepath.Join(flagOutdir, fmt.Sprintf("peer-%d", i))
		cfg.Gateway.Address = fmt.Sprintf("%s:%d", flagHost, flagBasePort+100+i)
		cfg.MetricsAddress = fmt.Sprintf("%s:%d", flagHost, flagBasePort+200+i)

		err = cfg.EncodeKeys(keys, share)
		if err != nil {
			log.Fatal().Err(err).Int("peer", i).Msg("could not encode keys")
		}

		path := filepath.Join(flagOutdir, fmt.Sprintf("peer-%d.yml", i))
		err = config.Write(path, cfg)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("could not write config")
		}
		log.Info().Int("peer", i).Str("path", path).Msg("wrote member configuration")
	}

	log.Info().
		Int("peers", flagPeers).
		Int("threshold", threshold).
		Msg("federation keys dealt")
}
