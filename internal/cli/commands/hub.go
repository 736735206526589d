package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"KinkLink/internal/cli/api"
	"KinkLink/internal/config"
	"KinkLink/internal/wire"

	"github.com/gorilla/websocket"
)

// DefaultIdentity — идентичность, с которой kinkctl подключается к хабу.
const DefaultIdentity = "kinkctl"

// hubFlags — общие флаги команд, работающих через сокет.
type hubFlags struct {
	identity string
	cbor     bool
}

func parseHubFlags(name string, args []string) (hubFlags, []string, error) {
	var hf hubFlags
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&hf.identity, "identity", DefaultIdentity, "identity reported to pairs")
	fs.BoolVar(&hf.cbor, "cbor", false, "use the CBOR codec")
	if err := fs.Parse(args); err != nil {
		return hf, nil, ErrUsage
	}
	return hf, fs.Args(), nil
}

func dialHub(ctx context.Context, cfg *config.Config, hf hubFlags) (*api.HubClient, error) {
	token, err := storeFor(cfg).Load()
	if err != nil {
		return nil, errors.New("not logged in")
	}
	return api.DialHub(ctx, cfg.HubURL, token, hf.identity, hf.cbor)
}

// parseArgs читает JSON-аргументы вызова. Целые числа остаются целыми,
// чтобы CBOR не кодировал их как float.
func parseArgs(s string) (any, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("arguments: %w", err)
	}
	if dec.More() {
		return nil, errors.New("arguments: trailing data")
	}
	return normalizeNumbers(v), nil
}

func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case map[string]any:
		for k, e := range t {
			t[k] = normalizeNumbers(e)
		}
	case []any:
		for i, e := range t {
			t[i] = normalizeNumbers(e)
		}
	}
	return v
}

// printData выводит полезную нагрузку кадра как JSON с отступами.
func printData(codec wire.Codec, f wire.Frame) error {
	if len(f.Data) == 0 {
		return nil
	}
	var v any
	if err := wire.DecodeData(codec, f, &v); err != nil {
		return err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, b, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err = Out.Write(buf.Bytes())
	return err
}

type callCmd struct{}

func (callCmd) Name() string { return "call" }
func (callCmd) Description() string {
	return "Invoke a hub method with JSON arguments and print the result"
}
func (callCmd) Usage() string { return "call [--identity id] [--cbor] <method> [json]" }

func (callCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	hf, rest, err := parseHubFlags("call", args)
	if err != nil {
		return err
	}
	if len(rest) < 1 || len(rest) > 2 {
		return ErrUsage
	}
	var callArgs any
	if len(rest) == 2 {
		if callArgs, err = parseArgs(rest[1]); err != nil {
			return err
		}
	}
	c, err := dialHub(ctx, cfg, hf)
	if err != nil {
		return err
	}
	defer c.Close()

	res, err := c.Call(ctx, rest[0], callArgs)
	var ce *api.CallError
	if errors.As(err, &ce) {
		return fmt.Errorf("%s", ce.Code)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(Out, res.Code)
	return printData(c.Codec(), res)
}

type listenCmd struct{}

func (listenCmd) Name() string        { return "listen" }
func (listenCmd) Description() string { return "Stay online and print pushed events (all or the named ones)" }
func (listenCmd) Usage() string       { return "listen [--identity id] [--cbor] [event...]" }

func (listenCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	hf, names, err := parseHubFlags("listen", args)
	if err != nil {
		return err
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	c, err := dialHub(ctx, cfg, hf)
	if err != nil {
		return err
	}
	defer c.Close()
	fmt.Fprintln(Out, "Listening, Ctrl+C to stop")

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-c.Events():
			if !ok {
				err := c.Err()
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return nil
				}
				return fmt.Errorf("hub closed: %w", err)
			}
			if len(want) > 0 && !want[ev.Method] {
				continue
			}
			fmt.Fprintf(Out, "%s\n", ev.Method)
			if err := printData(c.Codec(), ev); err != nil {
				return err
			}
		}
	}
}

func init() {
	RegisterCmd(callCmd{})
	RegisterCmd(listenCmd{})
}
