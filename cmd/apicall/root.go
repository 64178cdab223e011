package main

import (
	"io"
	"os"
	"strings"

	"github.com/ThalesGroup/apiclient"
	"github.com/ThalesGroup/apiclient/config"
	"github.com/ansel1/merry"
	"github.com/spf13/cobra"
)

type callFlags struct {
	configFile    string
	envFiles      []string
	method        string
	headers       []string
	query         []string
	data          string
	dataFile      string
	output        string
	expectSuccess bool
	dump          bool
}

func newRootCmd() *cobra.Command {
	var f callFlags

	cmd := &cobra.Command{
		Use:   "apicall [flags] <url>",
		Short: "Send an API call and print the response body",
		Long: `Send a single API call and print the response body to stdout.

The url is resolved against the configured base_url.  With --output, the
response body is downloaded to a file instead.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, f, args[0])
		},
	}

	cmd.Flags().StringVarP(&f.configFile, "config", "c", "", "config file (yaml, json or toml)")
	cmd.Flags().StringSliceVar(&f.envFiles, "env-file", nil, ".env files to load")
	cmd.Flags().StringVarP(&f.method, "method", "X", "GET", "HTTP method")
	cmd.Flags().StringArrayVarP(&f.headers, "header", "H", nil, `request header, as "Name: value"`)
	cmd.Flags().StringArrayVarP(&f.query, "query", "q", nil, "query param, as name=value")
	cmd.Flags().StringVarP(&f.data, "data", "d", "", "request body")
	cmd.Flags().StringVar(&f.dataFile, "data-file", "", "file to send as the request body")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "write the response body to this file")
	cmd.Flags().BoolVar(&f.expectSuccess, "expect-success", true, "fail unless the status code is 2XX")
	cmd.Flags().BoolVar(&f.dump, "dump", false, "dump requests and responses to stderr")

	return cmd
}

func run(cmd *cobra.Command, f callFlags, target string) error {
	settings, err := config.Load(f.configFile, f.envFiles...)
	if err != nil {
		return err
	}

	var doerMiddleware []apiclient.DoerMiddleware
	if f.dump {
		doerMiddleware = append(doerMiddleware, apiclient.Dump(cmd.ErrOrStderr()))
	}
	opts, err := settings.Options(doerMiddleware...)
	if err != nil {
		return err
	}

	callOpts, err := callOptions(f, target)
	if err != nil {
		return err
	}

	c, err := apiclient.New(append(opts, callOpts...)...)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if f.output != "" {
		path, err := apiclient.Download(ctx, c)
		if err != nil {
			return err
		}
		return moveFile(path, f.output)
	}

	body, err := apiclient.Call(ctx, c, apiclient.HTTP[[]byte](), apiclient.Identity[[]byte]())
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(body)
	return err
}

// callOptions converts the flags describing the call into options.
func callOptions(f callFlags, target string) ([]apiclient.Option, error) {
	opts := []apiclient.Option{apiclient.Method(strings.ToUpper(f.method), target)}

	for _, h := range f.headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok {
			return nil, merry.Errorf("invalid header %q: expected \"Name: value\"", h)
		}
		opts = append(opts, apiclient.AddHeader(strings.TrimSpace(name), strings.TrimSpace(value)))
	}

	for _, q := range f.query {
		name, value, ok := strings.Cut(q, "=")
		if !ok {
			return nil, merry.Errorf("invalid query param %q: expected name=value", q)
		}
		opts = append(opts, apiclient.QueryParam(name, value))
	}

	if f.data != "" {
		opts = append(opts, apiclient.Body(f.data))
	}
	if f.dataFile != "" {
		opts = append(opts, apiclient.File(f.dataFile))
	}
	if f.expectSuccess {
		opts = append(opts, apiclient.ExpectSuccessCode())
	}
	return opts, nil
}

func moveFile(from, to string) error {
	if err := os.Rename(from, to); err == nil {
		return nil
	}

	// rename fails across filesystems
	src, err := os.Open(from)
	if err != nil {
		return merry.Wrap(err)
	}
	defer src.Close()
	defer os.Remove(from)

	dst, err := os.Create(to)
	if err != nil {
		return merry.Wrap(err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return merry.Wrap(err)
	}
	if err := dst.Close(); err != nil {
		return merry.Wrap(err)
	}
	return nil
}
