// Command contentfilter starts a filtering MITM proxy on top of the rule
// lists specified in the command-line arguments.
package main

import (
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AdguardTeam/contentfilter/proxy"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/gomitmproxy"
	"github.com/AdguardTeam/gomitmproxy/mitm"
	goFlags "github.com/jessevdk/go-flags"
)

// Options are the console arguments.
type Options struct {
	// Verbose defines whether we should write the debug-level log.
	Verbose bool `short:"v" long:"verbose" description:"Verbose output (optional)." optional:"yes" optional-value:"true"`

	// ListenAddr is the server listen address.
	ListenAddr string `short:"l" long:"listen" description:"Listen address." default:"0.0.0.0"`

	// ListenPort is the server listen port.
	ListenPort int `short:"p" long:"port" description:"Listen port." default:"8080"`

	// TLSCertPath is the path to the .crt with the certificate chain.
	TLSCertPath string `short:"c" long:"ca-cert" description:"Path to a file with the root certificate." required:"true"`

	// TLSKeyPath is the path to the file with the private key.
	TLSKeyPath string `short:"k" long:"ca-key" description:"Path to a file with the CA private key." required:"true"`

	// FilterLists are the paths to the filter lists.
	FilterLists []string `short:"f" long:"filter" description:"Path to the filter list. Can be specified multiple times."`

	// ProxyUser is the proxy auth username.
	ProxyUser string `short:"u" long:"username" description:"Proxy auth username. If specified, proxy authorization is required."`

	// ProxyPassword is the proxy auth password.
	ProxyPassword string `short:"a" long:"password" description:"Proxy auth password. If specified, proxy authorization is required."`

	// HTTPSProxy makes the server a HTTPS proxy instead of a plain HTTP
	// one.
	HTTPSProxy bool `short:"t" long:"https" description:"Run an HTTPS proxy (otherwise, it runs plain HTTP proxy)." optional:"yes" optional-value:"true"`

	// HTTPSHostname is the server name for the HTTPS proxy.
	HTTPSHostname string `short:"n" long:"https-name" description:"Server name or IP address of the HTTPS proxy."`
}

func main() {
	var options Options
	parser := goFlags.NewParser(&options, goFlags.Default)

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*goFlags.Error); ok && flagsErr.Type == goFlags.ErrHelp {
			os.Exit(0)
		}

		os.Exit(1)
	}

	run(options)
}

func run(options Options) {
	lvl := slog.LevelInfo
	if options.Verbose {
		lvl = slog.LevelDebug
	}

	logger := slogutil.New(&slogutil.Config{
		Level: lvl,
	})

	logger.Info("starting the proxy")

	config := createServerConfig(logger, options)
	server, err := proxy.NewServer(config, logger)
	if err != nil {
		logger.Error("failed to create the proxy server", slogutil.KeyError, err)

		os.Exit(1)
	}

	err = server.Start()
	if err != nil {
		logger.Error("failed to start the proxy server", slogutil.KeyError, err)

		os.Exit(1)
	}

	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, syscall.SIGINT, syscall.SIGTERM)
	<-signalChannel

	server.Close()
}

// createServerConfig builds the proxy configuration from the command-line
// options.
func createServerConfig(logger *slog.Logger, options Options) proxy.Config {
	listenIP := net.ParseIP(options.ListenAddr)
	if listenIP == nil {
		logger.Error("cannot parse listen address", "addr", options.ListenAddr)

		os.Exit(1)
	}

	mitmConfig := createMITMConfig(logger, options)

	var tlsConfig *tls.Config
	if options.HTTPSProxy {
		if options.HTTPSHostname == "" {
			logger.Error("HTTPS hostname must be specified")

			os.Exit(1)
		}

		proxyCert, err := mitmConfig.GetOrCreateCert(options.HTTPSHostname)
		if err != nil {
			logger.Error(
				"failed to generate the HTTPS proxy certificate",
				"hostname", options.HTTPSHostname,
				slogutil.KeyError, err,
			)

			os.Exit(1)
		}

		tlsConfig = &tls.Config{
			Certificates: []tls.Certificate{*proxyCert},
			ServerName:   options.HTTPSHostname,
		}
	}

	config := proxy.Config{
		FiltersPaths:          map[int]string{},
		CompressContentScript: true,
	}
	for i, v := range options.FilterLists {
		config.FiltersPaths[i] = v
	}

	config.ProxyConfig = gomitmproxy.Config{
		ListenAddr: &net.TCPAddr{IP: listenIP, Port: options.ListenPort},
		TLSConfig:  tlsConfig,

		Username: options.ProxyUser,
		Password: options.ProxyPassword,

		MITMConfig: mitmConfig,
	}

	return config
}

// createMITMConfig loads the root CA and builds the MITM configuration.
func createMITMConfig(logger *slog.Logger, options Options) *mitm.Config {
	tlsCert, err := tls.LoadX509KeyPair(options.TLSCertPath, options.TLSKeyPath)
	if err != nil {
		logger.Error("failed to load the root CA", slogutil.KeyError, err)

		os.Exit(1)
	}
	privateKey := tlsCert.PrivateKey.(*rsa.PrivateKey)

	x509c, err := x509.ParseCertificate(tlsCert.Certificate[0])
	if err != nil {
		logger.Error("invalid certificate", slogutil.KeyError, err)

		os.Exit(1)
	}

	mitmConfig, err := mitm.NewConfig(x509c, privateKey, nil)
	if err != nil {
		logger.Error("failed to create the MITM config", slogutil.KeyError, err)

		os.Exit(1)
	}

	// Generate certs valid for 7 days.
	mitmConfig.SetValidity(time.Hour * 24 * 7)
	mitmConfig.SetOrganization("contentfilter")

	return mitmConfig
}
