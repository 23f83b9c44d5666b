package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nerrad567/rfm-gateway/internal/bridges/rfm69"
)

// defaultConfigPath is used when neither --config nor RFMGW_CONFIG is set.
const defaultConfigPath = "configs/config.yaml"

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "rfmgateway",
		Short: "RFM69 radio to MQTT gateway",
		Long: `rfmgateway - bridges an RFM69 packet-radio network to an MQTT broker.

Records received from sensor nodes are published as four messages:
  <prefix>/<node:02><sensor:01><var:01>   var 1=counter 2=floatA 3=floatB 4=RSSI

Commands published to <root>/<network:03>/<node> with the payload
"sensorId,counter,floatA,floatB" are sent to the addressed node.

Transceiver links:
  serial:    radio.driver=serial radio.device=/dev/ttyUSB0
  websocket: radio.driver=websocket radio.url=ws://host/path
  sim:       radio.driver=sim (in-memory, for bench testing)`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), getConfigPath(configPath))
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default $RFMGW_CONFIG or "+defaultConfigPath+")")

	root.AddCommand(newDecodeCmd(), newTopicCmd(), newVersionCmd())
	return root
}

// getConfigPath resolves the config file: flag, then RFMGW_CONFIG, then default.
func getConfigPath(flag string) string {
	if flag != "" {
		return flag
	}
	if path := os.Getenv("RFMGW_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

func newDecodeCmd() *cobra.Command {
	var (
		prefix string
		rssi   int
	)

	cmd := &cobra.Command{
		Use:   "decode <hex>",
		Short: "Decode a 16-byte radio record and print the messages it produces",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := hex.DecodeString(strings.ReplaceAll(args[0], " ", ""))
			if err != nil {
				return fmt.Errorf("invalid hex: %w", err)
			}
			rec, err := rfm69.DecodeRecord(data)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "node=%d sensor=%d counter=%d floatA=%f floatB=%f\n",
				rec.NodeID, rec.SensorID, rec.Counter, rec.FloatA, rec.FloatB)
			for _, m := range rfm69.RecordMessages(prefix, rfm69.EnrichedRecord{WireRecord: rec, RSSI: rssi}) {
				fmt.Fprintf(out, "%s %s\n", m.Topic, m.Payload)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", rfm69.DefaultRoot, "Telemetry topic prefix (empty for bare topics)")
	cmd.Flags().IntVar(&rssi, "rssi", 0, "Signal strength to report in the fourth message")
	return cmd
}

func newTopicCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "topic <node> <sensor> <var>",
		Short: "Print the compact topic for one variable",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var n [3]int
			for i, a := range args {
				v, err := strconv.Atoi(a)
				if err != nil {
					return fmt.Errorf("argument %d: %w", i+1, err)
				}
				n[i] = v
			}
			fmt.Fprintln(cmd.OutOrStdout(), rfm69.EncodeTopic(n[0], n[1], n[2]))
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "rfmgateway %s\ncommit: %s\nbuilt:  %s\n", version, commit, date)
		},
	}
}
