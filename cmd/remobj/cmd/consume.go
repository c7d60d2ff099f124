package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/remobj/remobj-go/internal/wire"
	wstransport "github.com/remobj/remobj-go/pkg/transport/websocket"
	"github.com/remobj/remobj-go/pkg/remobj"
)

var (
	consumeDialURL string
	consumePath    string
	consumeOp      string
	consumeArgs    string
	consumeTimeout time.Duration
)

var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Dial a provider and perform one remote operation against its tree",
	Long: `Dial a remobj provider over websocket, walk to a property path, perform
one operation against it, print the JSON result, and disconnect.

  remobj consume --dial ws://127.0.0.1:8080/ --op call --path Now
  remobj consume --dial ws://127.0.0.1:8080/ --op call --path Echo --args '["hi"]'`,
	RunE: runConsume,
}

func init() {
	consumeCmd.Flags().StringVar(&consumeDialURL, "dial", "", "websocket URL to connect to (required)")
	consumeCmd.Flags().StringVar(&consumePath, "path", "", "slash-separated property path, relative to the root (e.g. \"Echo\")")
	consumeCmd.Flags().StringVar(&consumeOp, "op", "await", "operation to perform: call, construct, set, await")
	consumeCmd.Flags().StringVar(&consumeArgs, "args", "[]", "JSON array of arguments for call/construct, or a single JSON value for set")
	consumeCmd.Flags().DurationVar(&consumeTimeout, "timeout", 0, "request timeout, also bounding the dial (0 keeps the consumer default, with the whole command bounded at 30s)")
	_ = consumeCmd.MarkFlagRequired("dial")
	rootCmd.AddCommand(consumeCmd)
}

func runConsume(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	ctx, cancel := context.WithTimeout(context.Background(), resolveConsumeTimeout())
	defer cancel()

	ep, err := wstransport.Dial(ctx, consumeDialURL, logger)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	opts := []remobj.ConsumeOption{remobj.WithConsumerLogger(logger)}
	if consumeTimeout > 0 {
		opts = append(opts, remobj.WithTimeout(consumeTimeout))
	}
	root := remobj.Consume(ep, opts...)
	defer func() { _ = root.Dispose() }()

	target, err := walkPath(root, consumePath)
	if err != nil {
		return err
	}

	result, err := performOp(ctx, target, consumeOp, consumeArgs)
	if err != nil {
		return err
	}

	return printResult(result)
}

func resolveConsumeTimeout() time.Duration {
	if consumeTimeout > 0 {
		return consumeTimeout
	}
	return 30 * time.Second
}

// walkPath traverses a slash-separated property path starting from root,
// returning the leaf proxy. An empty path returns root itself.
func walkPath(root *remobj.Proxy, path string) (*remobj.Proxy, error) {
	proxy := root
	for _, seg := range wire.SplitPath(path) {
		if seg == "" {
			continue
		}
		next, err := proxy.Get(seg)
		if err != nil {
			return nil, fmt.Errorf("resolving path segment %q: %w", seg, err)
		}
		proxy = next
	}
	return proxy, nil
}

func performOp(ctx context.Context, p *remobj.Proxy, op string, rawArgs string) (interface{}, error) {
	switch strings.ToLower(op) {
	case "call":
		args, err := decodeArgsArray(rawArgs)
		if err != nil {
			return nil, err
		}
		return p.Call(ctx, args...)
	case "construct":
		args, err := decodeArgsArray(rawArgs)
		if err != nil {
			return nil, err
		}
		return p.Construct(ctx, args...)
	case "set":
		var value interface{}
		if err := json.Unmarshal([]byte(rawArgs), &value); err != nil {
			return nil, fmt.Errorf("decoding --args as a single JSON value: %w", err)
		}
		return nil, p.Set(ctx, value)
	case "await":
		return p.Await(ctx)
	default:
		return nil, fmt.Errorf("unknown --op %q: must be one of call, construct, set, await", op)
	}
}

func decodeArgsArray(rawArgs string) ([]interface{}, error) {
	var args []interface{}
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return nil, fmt.Errorf("decoding --args as a JSON array: %w", err)
	}
	return args, nil
}

func printResult(result interface{}) error {
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
