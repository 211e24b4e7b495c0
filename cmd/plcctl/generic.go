package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iceisfun/goeip/pkg/cip"
	"github.com/iceisfun/goeip/pkg/plc"
	"github.com/iceisfun/goeip/pkg/plcerr"
	"github.com/iceisfun/goeip/pkg/utils"
)

// rawBytes is a types.Descriptor that passes an already-encoded byte
// string through verbatim, for generic-message requests/responses the
// CLI has no richer type information for.
type rawBytes int

func (r rawBytes) Size() int { return int(r) }

func (r rawBytes) EncodeAt(out []byte, off int, value any) error {
	b, ok := value.([]byte)
	if !ok {
		return &plcerr.DataValueError{Reason: fmt.Sprintf("rawBytes expects []byte, got %T", value)}
	}
	if len(b) != int(r) {
		return &plcerr.DataValueError{Reason: fmt.Sprintf("rawBytes write supplies %d bytes, need %d", len(b), r)}
	}
	copy(out[off:], b)
	return nil
}

func (r rawBytes) DecodeAt(data []byte, off int) (any, error) {
	return data[off:], nil
}

func newGenericCmd() *cobra.Command {
	var service uint8
	var class uint16
	var instance uint32
	var attribute uint16
	var requestHex string
	var connected, unconnectedSend bool

	cmd := &cobra.Command{
		Use:   "generic-message",
		Short: "Send a caller-built CIP request against an arbitrary class/instance/attribute",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if service == 0 {
				return fmt.Errorf("--service is required")
			}
			if class == 0 {
				return fmt.Errorf("--class is required")
			}

			d, err := openDriver(cmd)
			if err != nil {
				return err
			}
			defer d.Close()

			msg := plc.GenericMessage{
				Service:         cip.USINT(service),
				ClassCode:       cip.UINT(class),
				Instance:        instance,
				Attribute:       cip.UINT(attribute),
				Connected:       connected,
				UnconnectedSend: unconnectedSend,
			}

			if requestHex != "" {
				data, err := hex.DecodeString(requestHex)
				if err != nil {
					return fmt.Errorf("--request-hex: %w", err)
				}
				msg.RequestType = rawBytes(len(data))
				msg.RequestValue = data
			}

			result := d.SendGeneric(msg)
			if result.Err != nil {
				return result.Err
			}
			fmt.Print(utils.HexDump(result.Raw))
			return nil
		},
	}

	cmd.Flags().Uint8Var(&service, "service", 0, "CIP service code (required)")
	cmd.Flags().Uint16Var(&class, "class", 0, "target class code (required)")
	cmd.Flags().Uint32Var(&instance, "instance", 1, "target instance")
	cmd.Flags().Uint16Var(&attribute, "attribute", 0, "target attribute (0 omits the attribute segment)")
	cmd.Flags().StringVar(&requestHex, "request-hex", "", "hex-encoded request data")
	cmd.Flags().BoolVar(&connected, "connected", false, "send over the established connected-messaging connection")
	cmd.Flags().BoolVar(&unconnectedSend, "unconnected-send", false, "wrap the request in a Connection Manager Unconnected_Send")

	return cmd
}
