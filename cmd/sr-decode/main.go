// sr-decode reads the payload out of a siderequest PNG.
//
// File mode decodes images already on disk:
//
//	sr-decode response.png
//
// Server mode sends a descriptor and decodes the reply:
//
//	sr-decode --server http://localhost:5000 --route /get_money.png --data '{"username":"alice"}'
//
// A payload cut short by a too-small image prints the bytes that arrived
// and exits with status 2.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"

	"siderequest/internal/client"
	"siderequest/internal/payload"
	"siderequest/internal/pixcodec"
	"siderequest/internal/shared"
)

const exitTruncated = 2

func main() {
	code, err := run(os.Args[1:], os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sr-decode: %v\n", err)
	}
	os.Exit(code)
}

func run(args []string, stdout, stderr io.Writer) (int, error) {
	var (
		serverURL string
		route     string
		data      string
		size      int
		timeout   time.Duration
	)
	fs := pflag.NewFlagSet("sr-decode", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&serverURL, "server", "", "server base URL; when empty, arguments are PNG files")
	fs.StringVar(&route, "route", shared.RouteGetMoney, "endpoint path in server mode")
	fs.StringVarP(&data, "data", "d", shared.DefaultDescriptor, "JSON descriptor sent as 'd'")
	fs.IntVarP(&size, "size", "s", 0, "image side length sent as 's' (0 = server default)")
	fs.DurationVar(&timeout, "timeout", 20*time.Second, "request timeout")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0, nil
		}
		return 1, err
	}

	if serverURL == "" {
		if fs.NArg() == 0 {
			return 1, errors.New("no PNG files given and --server not set")
		}
		code := 0
		for _, path := range fs.Args() {
			c, err := decodeFile(path, stdout, stderr)
			if err != nil {
				return 1, err
			}
			if c > code {
				code = c
			}
		}
		return code, nil
	}

	desc, err := payload.Parse(data)
	if err != nil {
		return 1, fmt.Errorf("--data: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	c := client.New(serverURL)
	obj, raw, err := c.Call(ctx, route, desc, size)
	return report(obj, raw, err, stdout, stderr)
}

func decodeFile(path string, stdout, stderr io.Writer) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 1, err
	}
	defer f.Close()
	obj, raw, err := pixcodec.DecodePNG(f)
	return report(obj, raw, err, stdout, stderr)
}

func report(obj payload.Object, raw []byte, err error, stdout, stderr io.Writer) (int, error) {
	if errors.Is(err, pixcodec.ErrTruncated) {
		fmt.Fprintf(stderr, "warning: payload truncated (%d bytes recovered)\n", len(raw))
		fmt.Fprintf(stdout, "%s\n", raw)
		return exitTruncated, nil
	}
	if err != nil {
		return 1, err
	}
	fmt.Fprintf(stdout, "%s\n", payload.Marshal(obj))
	return 0, nil
}
