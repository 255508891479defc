package proxy

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/AdguardTeam/contentfilter"
	"github.com/AdguardTeam/contentfilter/cache"
	"github.com/AdguardTeam/contentfilter/filterlist"
	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/gomitmproxy"
)

// Session property keys.
const (
	sessionPropKey    = "session"
	requestBlockedKey = "blocked"
)

// defaultInjectionsHost is the host the cosmetic content script is served
// from.
const defaultInjectionsHost = "injections.contentfilter.invalid"

// Config contains the MITM proxy configuration.
type Config struct {
	// ProxyConfig is the config of the MITM proxy.
	ProxyConfig gomitmproxy.Config

	// FiltersPaths are the paths to the filtering rule lists, keyed by the
	// list ID.
	FiltersPaths map[int]string

	// InjectionHost is used for injecting custom CSS/JS into web pages.
	//
	// Here's how it works:
	//  - The proxy injects a script tag pointing to
	//    "//INJECTION_HOST/content-script.js?hostname=HOSTNAME&option=FLAGS"
	//    into HTML documents.
	//  - The proxy handles requests to this host itself.
	//  - The content script content depends on the flags value.
	InjectionHost string

	// TrustTTL is for how long a document host stays trusted after the user
	// dismissed its warning page.  Zero means the default.
	TrustTTL time.Duration

	// CompressContentScript enables serving the content script compressed.
	// This is useful when the proxy is on a public server, as it saves
	// some data.
	CompressContentScript bool
}

// Server contains the current proxy server state.
type Server struct {
	// proxyServer is the MITM proxy server instance.
	proxyServer *gomitmproxy.Proxy

	// holder holds the current filtering engine generation.
	holder *contentfilter.RequestFilterHolder

	// safebrowsing caches the safebrowsing lookup results.
	safebrowsing *cache.Safebrowsing

	// trusted remembers the document hosts the user chose to proceed to.
	trusted *cache.TrustedDocuments

	// logger is the server logger.
	logger *slog.Logger

	// createdAt is the time when the server was created.
	createdAt time.Time

	// Config is the server configuration.
	Config
}

// NewServer creates a new instance of the MITM server.
func NewServer(config Config, logger *slog.Logger) (s *Server, err error) {
	if config.InjectionHost == "" {
		config.InjectionHost = defaultInjectionsHost
	}

	s = &Server{
		holder:       &contentfilter.RequestFilterHolder{},
		safebrowsing: cache.NewSafebrowsing(0),
		trusted:      cache.NewTrustedDocuments(config.TrustTTL),
		logger:       logger,
		createdAt:    time.Now(),
		Config:       config,
	}

	err = s.Reload()
	if err != nil {
		return nil, errors.Annotate(err, "initializing filtering engine: %w")
	}

	s.ProxyConfig.OnRequest = s.onRequest
	s.ProxyConfig.OnResponse = s.onResponse
	s.ProxyConfig.OnConnect = s.onConnect
	s.proxyServer = gomitmproxy.NewProxy(s.ProxyConfig)

	return s, nil
}

// Start starts the proxy server.
func (s *Server) Start() error {
	s.logger.Info("starting the proxy server", "addr", s.ProxyConfig.ListenAddr)

	return s.proxyServer.Start()
}

// Close stops the proxy server.
func (s *Server) Close() {
	s.proxyServer.Close()
}

// Reload rebuilds the filtering engine from the configured rule lists and
// publishes it.  In-flight requests keep using the previous generation.
func (s *Server) Reload() (err error) {
	filter, err := buildRequestFilter(s.Config)
	if err != nil {
		return err
	}

	s.holder.Store(filter)
	s.logger.Info("filtering engine loaded", "rules", filter.RulesCount())

	return nil
}

// filter returns the current filtering engine generation.
func (s *Server) filter() *contentfilter.RequestFilter {
	return s.holder.Get()
}

// TrustDocument marks the host as trusted so that its warning page is not
// shown again until the trust expires.
func (s *Server) TrustDocument(host string) {
	s.trusted.Trust(host)
}

// buildRequestFilter builds a new filtering engine from the rule list files.
func buildRequestFilter(config Config) (f *contentfilter.RequestFilter, err error) {
	var lists []filterlist.RuleList

	for filterID, path := range config.FiltersPaths {
		list, lerr := filterlist.NewFileRuleList(filterID, path, false)
		if lerr != nil {
			return nil, fmt.Errorf("failed to create rule list %d: %w", filterID, lerr)
		}

		lists = append(lists, list)
	}

	ruleStorage, err := filterlist.NewRuleStorage(lists)
	if err != nil {
		return nil, fmt.Errorf("cannot initialize rule storage: %w", err)
	}

	return contentfilter.NewRequestFilterFromStorage(ruleStorage), nil
}
