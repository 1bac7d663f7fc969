/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package startcmd

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"github.com/trustbloc/did-auth-jose-go/pkg/authentication"
	"github.com/trustbloc/did-auth-jose-go/pkg/common/log"
	"github.com/trustbloc/did-auth-jose-go/pkg/controller"
	"github.com/trustbloc/did-auth-jose-go/pkg/controller/webnotifier"
	"github.com/trustbloc/did-auth-jose-go/pkg/doc/jose/jwk"
	"github.com/trustbloc/did-auth-jose-go/pkg/vdr"
	"github.com/trustbloc/did-auth-jose-go/pkg/vdr/httpbinding"
	didkey "github.com/trustbloc/did-auth-jose-go/pkg/vdr/key"
)

const (
	// api host flag.
	agentHostFlagName      = "api-host"
	agentHostEnvKey        = "DIDAUTH_API_HOST"
	agentHostFlagShorthand = "a"
	agentHostFlagUsage     = "Host Name:Port." +
		" Alternatively, this can be set with the following environment variable: " + agentHostEnvKey

	// api token flag.
	agentTokenFlagName      = "api-token"
	agentTokenEnvKey        = "DIDAUTH_API_TOKEN" // nolint:gosec
	agentTokenFlagShorthand = "t"
	agentTokenFlagUsage     = "Check for bearer token in the authorization header (optional)." +
		" The exchange endpoint is authenticated by its own tokens and is never checked." +
		" Alternatively, this can be set with the following environment variable: " + agentTokenEnvKey

	// key file flag.
	agentKeyFileFlagName      = "key-file"
	agentKeyFileEnvKey        = "DIDAUTH_KEY_FILE"
	agentKeyFileFlagShorthand = "k"
	agentKeyFileFlagUsage     = "Path to a private JSON Web Key with a DID key id as its kid." +
		" This flag can be repeated; the last key signs exchange replies." +
		" Alternatively, this can be set with the following environment variable (in CSV format): " +
		agentKeyFileEnvKey

	// access token validity flag.
	agentTokenValidityFlagName  = "token-validity"
	agentTokenValidityEnvKey    = "DIDAUTH_TOKEN_VALIDITY"
	agentTokenValidityFlagUsage = "Lifetime of issued access tokens, e.g. 5m or 1h. Defaults to 5m if not set." +
		" Alternatively, this can be set with the following environment variable: " + agentTokenValidityEnvKey

	// webhook url flag.
	agentWebhookFlagName      = "webhook-url"
	agentWebhookEnvKey        = "DIDAUTH_WEBHOOK_URL"
	agentWebhookFlagShorthand = "w"
	agentWebhookFlagUsage     = "URL to send exchange notifications to." +
		" This flag can be repeated, allowing for multiple listeners." +
		" Alternatively, this can be set with the following environment variable (in CSV format): " + agentWebhookEnvKey

	// log level.
	agentLogLevelFlagName  = "log-level"
	agentLogLevelEnvKey    = "DIDAUTH_LOG_LEVEL"
	agentLogLevelFlagUsage = "Log level." +
		" Possible values [INFO] [DEBUG] [ERROR] [WARNING] [CRITICAL] . Defaults to INFO if not set." +
		" Alternatively, this can be set with the following environment variable: " + agentLogLevelEnvKey

	// http resolver url flag.
	agentHTTPResolverFlagName      = "http-resolver-url"
	agentHTTPResolverEnvKey        = "DIDAUTH_HTTP_RESOLVER"
	agentHTTPResolverFlagShorthand = "r"
	agentHTTPResolverFlagUsage     = "HTTP binding DID resolver method and url. Values should be in `method@url` format." +
		" This flag can be repeated, allowing multiple http resolvers. Use * as the method for a catch-all resolver." +
		" Alternatively, this can be set with the following environment variable (in CSV format): " +
		agentHTTPResolverEnvKey

	// resolver retries flag.
	agentResolverRetriesFlagName  = "resolver-retries"
	agentResolverRetriesEnvKey    = "DIDAUTH_RESOLVER_RETRIES"
	agentResolverRetriesFlagUsage = "Number of retries of a failed resolution. Defaults to 0 if not set." +
		" Alternatively, this can be set with the following environment variable: " + agentResolverRetriesEnvKey

	// resolver cache size flag.
	agentResolverCacheSizeFlagName  = "resolver-cache-size"
	agentResolverCacheSizeEnvKey    = "DIDAUTH_RESOLVER_CACHE_SIZE"
	agentResolverCacheSizeFlagUsage = "Number of resolved DID documents to cache. 0 disables the cache." +
		" Defaults to " + resolverCacheSizeDefault + " if not set." +
		" Alternatively, this can be set with the following environment variable: " + agentResolverCacheSizeEnvKey

	// resolver cache ttl flag.
	agentResolverCacheTTLFlagName  = "resolver-cache-ttl"
	agentResolverCacheTTLEnvKey    = "DIDAUTH_RESOLVER_CACHE_TTL"
	agentResolverCacheTTLFlagUsage = "Lifetime of cached DID documents, e.g. 10m. Defaults to " +
		resolverCacheTTLDefault + " if not set." +
		" Alternatively, this can be set with the following environment variable: " + agentResolverCacheTTLEnvKey

	agentTLSCertFileFlagName      = "tls-cert-file"
	agentTLSCertFileEnvKey        = "TLS_CERT_FILE"
	agentTLSCertFileFlagShorthand = "c"
	agentTLSCertFileFlagUsage     = "tls certificate file." +
		" Alternatively, this can be set with the following environment variable: " + agentTLSCertFileEnvKey

	agentTLSKeyFileFlagName  = "tls-key-file"
	agentTLSKeyFileEnvKey    = "TLS_KEY_FILE"
	agentTLSKeyFileFlagUsage = "tls key file." +
		" Alternatively, this can be set with the following environment variable: " + agentTLSKeyFileEnvKey

	resolverCacheSizeDefault = "100"
	resolverCacheTTLDefault  = "10m"
	resolverRetryInterval    = time.Second

	exchangePath = "/authentication/exchange"
)

var (
	errMissingHost = errors.New("host not provided")
	errMissingKeys = errors.New("at least one key file is required")
	logger         = log.New("didauth/rest-server")
)

type agentParameters struct {
	server                  server
	host, token             string
	tlsCertFile, tlsKeyFile string
	keyFiles                []string
	webhookURLs             []string
	httpResolvers           []string
	tokenValidity           time.Duration
	resolverRetries         uint64
	resolverCacheSize       int
	resolverCacheTTL        time.Duration
}

type server interface {
	ListenAndServe(host string, router http.Handler, certFile, keyFile string) error
}

// HTTPServer represents an actual server implementation.
type HTTPServer struct{}

// ListenAndServe starts the server using the standard Go HTTP server implementation.
func (s *HTTPServer) ListenAndServe(host string, router http.Handler, certFile, keyFile string) error {
	if certFile != "" && keyFile != "" {
		return http.ListenAndServeTLS(host, certFile, keyFile, router)
	}

	return http.ListenAndServe(host, router) // nolint:gosec
}

// Cmd returns the Cobra start command.
func Cmd(server server) (*cobra.Command, error) {
	startCmd := createStartCMD(server)

	createFlags(startCmd)

	return startCmd, nil
}

func createStartCMD(server server) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start a DID authentication server",
		Long:  `Start a DID authentication controller exposing the JOSE authentication API`,
		RunE: func(cmd *cobra.Command, args []string) error {
			parameters, err := getAgentParameters(cmd, server)
			if err != nil {
				return err
			}

			return startAgent(parameters)
		},
	}
}

func getAgentParameters(cmd *cobra.Command, server server) (*agentParameters, error) { //nolint:funlen
	logLevel, err := getUserSetVar(cmd, agentLogLevelFlagName, agentLogLevelEnvKey, true)
	if err != nil {
		return nil, err
	}

	err = setLogLevel(logLevel)
	if err != nil {
		return nil, err
	}

	host, err := getUserSetVar(cmd, agentHostFlagName, agentHostEnvKey, false)
	if err != nil {
		return nil, err
	}

	token, err := getUserSetVar(cmd, agentTokenFlagName, agentTokenEnvKey, true)
	if err != nil {
		return nil, err
	}

	keyFiles, err := getUserSetVars(cmd, agentKeyFileFlagName, agentKeyFileEnvKey, false)
	if err != nil {
		return nil, err
	}

	webhookURLs, err := getUserSetVars(cmd, agentWebhookFlagName, agentWebhookEnvKey, true)
	if err != nil {
		return nil, err
	}

	httpResolvers, err := getUserSetVars(cmd, agentHTTPResolverFlagName, agentHTTPResolverEnvKey, true)
	if err != nil {
		return nil, err
	}

	tokenValidity, err := getDuration(cmd, agentTokenValidityFlagName, agentTokenValidityEnvKey,
		authentication.DefaultTokenValidity.String())
	if err != nil {
		return nil, err
	}

	cacheTTL, err := getDuration(cmd, agentResolverCacheTTLFlagName, agentResolverCacheTTLEnvKey,
		resolverCacheTTLDefault)
	if err != nil {
		return nil, err
	}

	cacheSize, err := getUserSetVar(cmd, agentResolverCacheSizeFlagName, agentResolverCacheSizeEnvKey, true)
	if err != nil {
		return nil, err
	}

	if cacheSize == "" {
		cacheSize = resolverCacheSizeDefault
	}

	size, err := strconv.Atoi(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to parse resolver cache size %s: %w", cacheSize, err)
	}

	retries, err := getUserSetVar(cmd, agentResolverRetriesFlagName, agentResolverRetriesEnvKey, true)
	if err != nil {
		return nil, err
	}

	var resolverRetries uint64

	if retries != "" {
		resolverRetries, err = strconv.ParseUint(retries, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse resolver retries %s: %w", retries, err)
		}
	}

	tlsCertFile, err := getUserSetVar(cmd, agentTLSCertFileFlagName, agentTLSCertFileEnvKey, true)
	if err != nil {
		return nil, err
	}

	tlsKeyFile, err := getUserSetVar(cmd, agentTLSKeyFileFlagName, agentTLSKeyFileEnvKey, true)
	if err != nil {
		return nil, err
	}

	return &agentParameters{
		server:            server,
		host:              host,
		token:             token,
		keyFiles:          keyFiles,
		webhookURLs:       webhookURLs,
		httpResolvers:     httpResolvers,
		tokenValidity:     tokenValidity,
		resolverRetries:   resolverRetries,
		resolverCacheSize: size,
		resolverCacheTTL:  cacheTTL,
		tlsCertFile:       tlsCertFile,
		tlsKeyFile:        tlsKeyFile,
	}, nil
}

func createFlags(startCmd *cobra.Command) {
	startCmd.Flags().StringP(agentHostFlagName, agentHostFlagShorthand, "", agentHostFlagUsage)

	startCmd.Flags().StringP(agentTokenFlagName, agentTokenFlagShorthand, "", agentTokenFlagUsage)

	startCmd.Flags().StringSliceP(agentKeyFileFlagName, agentKeyFileFlagShorthand, []string{}, agentKeyFileFlagUsage)

	startCmd.Flags().StringP(agentTokenValidityFlagName, "", "", agentTokenValidityFlagUsage)

	startCmd.Flags().StringSliceP(agentWebhookFlagName, agentWebhookFlagShorthand, []string{}, agentWebhookFlagUsage)

	startCmd.Flags().StringP(agentLogLevelFlagName, "", "", agentLogLevelFlagUsage)

	startCmd.Flags().StringSliceP(agentHTTPResolverFlagName, agentHTTPResolverFlagShorthand, []string{},
		agentHTTPResolverFlagUsage)

	startCmd.Flags().StringP(agentResolverRetriesFlagName, "", "", agentResolverRetriesFlagUsage)

	startCmd.Flags().StringP(agentResolverCacheSizeFlagName, "", "", agentResolverCacheSizeFlagUsage)

	startCmd.Flags().StringP(agentResolverCacheTTLFlagName, "", "", agentResolverCacheTTLFlagUsage)

	startCmd.Flags().StringP(agentTLSCertFileFlagName,
		agentTLSCertFileFlagShorthand, "", agentTLSCertFileFlagUsage)

	startCmd.Flags().StringP(agentTLSKeyFileFlagName, "", "", agentTLSKeyFileFlagUsage)
}

func getUserSetVar(cmd *cobra.Command, flagName, envKey string, isOptional bool) (string, error) {
	if cmd.Flags().Changed(flagName) {
		value, err := cmd.Flags().GetString(flagName)
		if err != nil {
			return "", fmt.Errorf(flagName+" flag not found: %s", err)
		}

		return value, nil
	}

	value, isSet := os.LookupEnv(envKey)

	if isOptional || isSet {
		return value, nil
	}

	return "", errors.New("Neither " + flagName + " (command line flag) nor " + envKey +
		" (environment variable) have been set.")
}

func getUserSetVars(cmd *cobra.Command, flagName, envKey string, isOptional bool) ([]string, error) {
	if cmd.Flags().Changed(flagName) {
		value, err := cmd.Flags().GetStringSlice(flagName)
		if err != nil {
			return nil, fmt.Errorf(flagName+" flag not found: %s", err)
		}

		return value, nil
	}

	value, isSet := os.LookupEnv(envKey)

	var values []string

	if isSet {
		values = strings.Split(value, ",")
	}

	if isOptional || isSet {
		return values, nil
	}

	return nil, fmt.Errorf(" %s not set. "+
		"It must be set via either command line or environment variable", flagName)
}

func getDuration(cmd *cobra.Command, flagName, envKey, defaultValue string) (time.Duration, error) {
	value, err := getUserSetVar(cmd, flagName, envKey, true)
	if err != nil {
		return 0, err
	}

	if value == "" {
		value = defaultValue
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s %s: %w", flagName, value, err)
	}

	return d, nil
}

func getResolver(parameters *agentParameters) (vdr.Resolver, error) {
	// did:key documents are derived from the identifier itself.
	opts := []vdr.Option{vdr.WithResolver(didkey.DIDMethod, didkey.New())}

	const numPartsResolverOption = 2

	for _, httpResolver := range parameters.httpResolvers {
		r := strings.SplitN(httpResolver, "@", numPartsResolverOption)
		if len(r) != numPartsResolverOption {
			return nil, fmt.Errorf("invalid http resolver options found")
		}

		httpVDR, err := httpbinding.New(r[1],
			httpbinding.WithRetries(parameters.resolverRetries, resolverRetryInterval))
		if err != nil {
			return nil, fmt.Errorf("failed to setup http resolver :  %w", err)
		}

		opts = append(opts, vdr.WithResolver(r[0], httpVDR))
	}

	var resolver vdr.Resolver = vdr.NewRegistry(opts...)

	if parameters.resolverCacheSize > 0 {
		resolver = vdr.NewCachingResolver(resolver, parameters.resolverCacheSize, parameters.resolverCacheTTL)
	}

	return resolver, nil
}

func loadKeys(keyFiles []string) ([]jwk.PrivateKey, error) {
	if len(keyFiles) == 0 {
		return nil, errMissingKeys
	}

	keys := make([]jwk.PrivateKey, 0, len(keyFiles))

	for _, keyFile := range keyFiles {
		raw, err := os.ReadFile(keyFile) // nolint:gosec
		if err != nil {
			return nil, fmt.Errorf("read key file %s : %w", keyFile, err)
		}

		key, err := jwk.ParsePrivateKey("", raw)
		if err != nil {
			return nil, fmt.Errorf("parse key file %s : %w", keyFile, err)
		}

		if key.KeyID() == "" {
			return nil, fmt.Errorf("key file %s : kid is required", keyFile)
		}

		logger.Infof("loaded key %s", key.KeyID())

		keys = append(keys, key)
	}

	return keys, nil
}

func setLogLevel(logLevel string) error {
	if logLevel != "" {
		level, err := log.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("failed to parse log level '%s' : %w", logLevel, err)
		}

		log.SetLevel("", level)

		logger.Infof("logger level set to %s", logLevel)
	}

	return nil
}

func validateAuthorizationBearerToken(w http.ResponseWriter, r *http.Request, token string) bool {
	actHdr := r.Header.Get("Authorization")
	expHdr := "Bearer " + token

	if subtle.ConstantTimeCompare([]byte(actHdr), []byte(expHdr)) != 1 {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("Unauthorised.\n")) // nolint:gosec,errcheck

		return false
	}

	return true
}

// authorizationMiddleware guards the administrative API. Peers reach the exchange endpoint with
// their own DID-signed requests, so it stays open.
func authorizationMiddleware(token string) mux.MiddlewareFunc {
	middleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == exchangePath || validateAuthorizationBearerToken(w, r, token) {
				next.ServeHTTP(w, r)
			}
		})
	}

	return middleware
}

func createHandler(parameters *agentParameters) (http.Handler, error) {
	keys, err := loadKeys(parameters.keyFiles)
	if err != nil {
		return nil, err
	}

	resolver, err := getResolver(parameters)
	if err != nil {
		return nil, err
	}

	auth, err := authentication.New(resolver, authentication.WithKeys(keys...),
		authentication.WithTokenValidity(parameters.tokenValidity))
	if err != nil {
		return nil, fmt.Errorf("create authentication : %w", err)
	}

	handlers, err := controller.GetRESTHandlers(auth, controller.WithWebhookURLs(parameters.webhookURLs...),
		controller.WithWebhookOptions(webnotifier.WithRetries(1, time.Second)))
	if err != nil {
		return nil, fmt.Errorf("failed to get rest service api :  %w", err)
	}

	router := mux.NewRouter()

	if parameters.token != "" {
		router.Use(authorizationMiddleware(parameters.token))
	}

	for _, handler := range handlers {
		router.HandleFunc(handler.Path(), handler.Handle()).Methods(handler.Method())
	}

	return cors.New(
		cors.Options{
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodHead},
			AllowedHeaders: []string{"Origin", "Accept", "Content-Type", "X-Requested-With", "Authorization"},
		},
	).Handler(router), nil
}

func startAgent(parameters *agentParameters) error {
	if parameters.host == "" {
		return errMissingHost
	}

	handler, err := createHandler(parameters)
	if err != nil {
		return fmt.Errorf("failed to start didauth rest on port [%s], %w", parameters.host, err)
	}

	logger.Infof("Starting didauth rest on host [%s]", parameters.host)

	err = parameters.server.ListenAndServe(parameters.host, handler, parameters.tlsCertFile, parameters.tlsKeyFile)
	if err != nil {
		return fmt.Errorf("failed to start didauth rest on port [%s], cause:  %w", parameters.host, err)
	}

	return nil
}
