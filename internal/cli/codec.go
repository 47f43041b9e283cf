package cli

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/roach88/serdegen/internal/encoding"
	"github.com/roach88/serdegen/internal/value"
)

// CodecOptions holds flags for the encode and decode commands.
type CodecOptions struct {
	*RootOptions
	Registry string
	Type     string
	Encoding string
}

// CodecResult is the output of encode and decode.
type CodecResult struct {
	Type     string `json:"type"`
	Encoding string `json:"encoding"`
	Hex      string `json:"hex"`
	Value    string `json:"value"`
}

func addCodecFlags(cmd *cobra.Command, opts *CodecOptions) {
	cmd.Flags().StringVarP(&opts.Registry, "registry", "r", "", "registry document")
	cmd.Flags().StringVar(&opts.Type, "type", "", "container to encode or decode")
	cmd.Flags().StringVarP(&opts.Encoding, "encoding", "e", "canonical", "canonical|noncanonical")
}

// NewEncodeCommand creates the encode command.
func NewEncodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CodecOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode a JSON value read from stdin",
		Long: `Read a JSON value from stdin, check it against a registry container and
print its binary encoding as hex.

Integers may be given as numbers or decimal strings, bytes as hex strings,
maps as arrays of [key, value] pairs and enums as {"Variant": payload}.

Example:
  echo '{"x": 1, "y": 2}' | serdegen encode -r point.yaml --type Point`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(opts, cmd)
		},
	}
	addCodecFlags(cmd, opts)
	return cmd
}

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CodecOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "decode <hex>",
		Short: "Decode hex bytes to a JSON value",
		Long: `Decode bytes given as hex and print the value as JSON. The whole input
must be consumed; canonical decoding also rejects unsorted maps and
non-minimal lengths.

Example:
  serdegen decode -r point.yaml --type Point 0100000002000000`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(opts, args[0], cmd)
		},
	}
	addCodecFlags(cmd, opts)
	return cmd
}

func (o *CodecOptions) codec(f *OutputFormatter) (*value.Codec, error) {
	if o.Registry == "" || o.Type == "" {
		return nil, NewExitError(ExitCommandError, "--registry and --type are required")
	}
	enc, err := encoding.Parse(o.Encoding)
	if err != nil {
		return nil, f.Fail(ExitCommandError, "encoding", err)
	}
	reg, err := loadRegistry(f, o.Registry)
	if err != nil {
		return nil, err
	}
	if _, ok := reg.Lookup(o.Type); !ok {
		return nil, f.Fail(ExitCommandError, "type",
			errors.WithHint(errors.Newf("no container %q in %s", o.Type, o.Registry), "run serdegen validate to list containers"))
	}
	return value.NewCodec(reg, enc), nil
}

func runEncode(opts *CodecOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	codec, err := opts.codec(formatter)
	if err != nil {
		return err
	}
	input, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return formatter.Fail(ExitCommandError, "read stdin", err)
	}
	v, err := value.FromJSON(codec.Registry(), opts.Type, input)
	if err != nil {
		return formatter.Fail(ExitFailure, "parse value", err)
	}
	data, err := codec.Encode(opts.Type, v)
	if err != nil {
		return formatter.Fail(ExitFailure, "encode", err)
	}
	return outputCodec(opts, cmd, codec, v, data)
}

func runDecode(opts *CodecOptions, input string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	codec, err := opts.codec(formatter)
	if err != nil {
		return err
	}
	data, err := hex.DecodeString(strings.Join(strings.Fields(input), ""))
	if err != nil {
		return formatter.Fail(ExitCommandError, "parse hex", err)
	}
	v, err := codec.Decode(opts.Type, data)
	if err != nil {
		return formatter.Fail(ExitFailure, "decode", err)
	}
	return outputCodec(opts, cmd, codec, v, data)
}

func outputCodec(opts *CodecOptions, cmd *cobra.Command, codec *value.Codec, v value.Value, data []byte) error {
	js, err := value.ToJSON(codec.Registry(), opts.Type, v)
	if err != nil {
		return opts.formatter(cmd).Fail(ExitFailure, "render value", err)
	}
	result := CodecResult{
		Type:     opts.Type,
		Encoding: codec.Encoding().String(),
		Hex:      hex.EncodeToString(data),
		Value:    string(js),
	}
	if opts.Format == "json" {
		return opts.formatter(cmd).Success(result)
	}
	if cmd.Name() == "encode" {
		fmt.Fprintln(cmd.OutOrStdout(), result.Hex)
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), result.Value)
	}
	return nil
}
