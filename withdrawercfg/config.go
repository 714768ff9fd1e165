// Package withdrawercfg handles configuration of the withdrawer daemon.
package withdrawercfg

import (
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	flags "github.com/jessevdk/go-flags"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/lumenlabs-io/stake-withdrawer/types"
)

const (
	defaultConfigFilename = "withdrawerd.conf"
	defaultLogFilename    = "withdrawerd.log"

	// DefaultRPCPort is the default port of the withdrawer JSON-RPC server.
	DefaultRPCPort = 15812

	defaultMaxOpenConnections = 25

	defaultFeeRecalcInterval       = 30 * time.Second
	defaultMaxConcurrentBroadcasts = 1

	defaultChainRPCHost  = "tcp://127.0.0.1:26657"
	defaultWalletRPCHost = "tcp://127.0.0.1:16110"
	defaultRPCTimeout    = 15 * time.Second

	defaultAssetID     = "cosmoshub/uatom"
	defaultFiat        = "usd"
	defaultGasLimit    = uint64(300000)
	defaultGasPrice    = "0.025"
	defaultMinGasPrice = "0.001"
	defaultMaxGasPrice = "1"
)

var (
	// DefaultWithdrawerdDir is the default directory of daemon data and
	// config, e.g. ~/.withdrawerd on linux.
	DefaultWithdrawerdDir = btcutil.AppDataDir("withdrawerd", false)

	defaultConfigFile = filepath.Join(DefaultWithdrawerdDir, defaultConfigFilename)
	defaultLogFile    = filepath.Join(DefaultWithdrawerdDir, defaultLogFilename)
)

// WithdrawerConfig groups the options of the withdrawal flow itself.
type WithdrawerConfig struct {
	AssetID string `long:"assetid" description:"Identifier of the asset being withdrawn in chain/denom form"`

	FeeAssetID string `long:"feeassetid" description:"Identifier of the asset which pays network fees. Defaults to the withdrawn asset"`

	DefaultValidator string `long:"defaultvalidator" description:"Bech32 validator operator address used when a request does not name one"`

	FiatCurrency string `long:"fiatcurrency" description:"Fiat currency used for price lookups"`

	FeeRecalcInterval time.Duration `long:"feerecalcinterval" description:"How often fee estimates are refreshed"`

	MaxConcurrentBroadcasts uint32 `long:"maxconcurrentbroadcasts" description:"Maximum number of in flight wallet broadcasts"`

	FeeEstimationMode string `long:"feeestimationmode" description:"Fee estimation mode" choice:"static" choice:"dynamic"`

	StaticGasLimit uint64 `long:"staticgaslimit" description:"Gas limit used in static fee estimation mode"`

	StaticGasPrice string `long:"staticgasprice" description:"Gas price used in static fee estimation mode, in fee asset base units per gas"`

	MinGasPrice string `long:"mingasprice" description:"Lower clamp applied to dynamic gas price estimates"`

	MaxGasPrice string `long:"maxgasprice" description:"Upper clamp applied to dynamic gas price estimates"`
}

// EstimationMode converts the configured mode string.
func (cfg *WithdrawerConfig) EstimationMode() types.FeeEstimationMode {
	if cfg.FeeEstimationMode == "dynamic" {
		return types.DynamicFeeEstimation
	}

	return types.StaticFeeEstimation
}

// FeeAsset returns the fee paying asset id, falling back to the withdrawn
// asset.
func (cfg *WithdrawerConfig) FeeAsset() string {
	if cfg.FeeAssetID != "" {
		return cfg.FeeAssetID
	}

	return cfg.AssetID
}

// Validate validates the withdrawer configuration.
func (cfg *WithdrawerConfig) Validate() error {
	if cfg.AssetID == "" {
		return fmt.Errorf("assetid must not be empty")
	}

	if cfg.FeeRecalcInterval <= 0 {
		return fmt.Errorf("feerecalcinterval must be positive")
	}

	if cfg.MaxConcurrentBroadcasts == 0 {
		return fmt.Errorf("maxconcurrentbroadcasts must be positive")
	}

	for name, value := range map[string]string{
		"staticgasprice": cfg.StaticGasPrice,
		"mingasprice":    cfg.MinGasPrice,
		"maxgasprice":    cfg.MaxGasPrice,
	} {
		price, err := decimal.NewFromString(value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, value, err)
		}
		if price.IsNegative() {
			return fmt.Errorf("%s must not be negative", name)
		}
	}

	minPrice, _ := decimal.NewFromString(cfg.MinGasPrice)
	maxPrice, _ := decimal.NewFromString(cfg.MaxGasPrice)
	if minPrice.GreaterThan(maxPrice) {
		return fmt.Errorf("mingasprice %s is greater than maxgasprice %s", cfg.MinGasPrice, cfg.MaxGasPrice)
	}

	return nil
}

// DefaultWithdrawerConfig returns the default withdrawal flow options.
func DefaultWithdrawerConfig() WithdrawerConfig {
	return WithdrawerConfig{
		AssetID:                 defaultAssetID,
		FiatCurrency:            defaultFiat,
		FeeRecalcInterval:       defaultFeeRecalcInterval,
		MaxConcurrentBroadcasts: defaultMaxConcurrentBroadcasts,
		FeeEstimationMode:       "dynamic",
		StaticGasLimit:          defaultGasLimit,
		StaticGasPrice:          defaultGasPrice,
		MinGasPrice:             defaultMinGasPrice,
		MaxGasPrice:             defaultMaxGasPrice,
	}
}

// ChainRPCConfig configures the connection to the chain gateway.
type ChainRPCConfig struct {
	Host string `long:"host" description:"Address of the chain gateway JSON-RPC server"`

	Timeout time.Duration `long:"timeout" description:"Timeout of chain queries"`
}

// DefaultChainRPCConfig returns default chain gateway connection options.
func DefaultChainRPCConfig() ChainRPCConfig {
	return ChainRPCConfig{
		Host:    defaultChainRPCHost,
		Timeout: defaultRPCTimeout,
	}
}

// WalletRPCConfig configures the connection to the wallet daemon.
type WalletRPCConfig struct {
	Host string `long:"host" description:"Address of the wallet daemon JSON-RPC server"`

	Timeout time.Duration `long:"timeout" description:"Timeout of wallet queries. The sign and broadcast call itself has no timeout"`
}

// DefaultWalletRPCConfig returns default wallet daemon connection options.
func DefaultWalletRPCConfig() WalletRPCConfig {
	return WalletRPCConfig{
		Host:    defaultWalletRPCHost,
		Timeout: defaultRPCTimeout,
	}
}

// MarketDataConfig configures the fiat price provider.
type MarketDataConfig struct {
	BaseURL string `long:"baseurl" description:"Base url of the price provider. Empty selects the public CoinGecko API"`

	Timeout time.Duration `long:"timeout" description:"Timeout of price requests"`
}

// DefaultMarketDataConfig returns default price provider options.
func DefaultMarketDataConfig() MarketDataConfig {
	return MarketDataConfig{
		Timeout: 5 * time.Second,
	}
}

// JSONRPCServerConfig configures the daemon's own JSON-RPC server.
type JSONRPCServerConfig struct {
	RawRPCListeners []string `long:"rpclisten" description:"Add an interface/port to listen for RPC connections"`

	MaxOpenConnections int `long:"maxopenconnections" description:"Maximum number of open RPC connections"`
}

// DefaultJSONRPCServerConfig returns default JSON-RPC server options.
func DefaultJSONRPCServerConfig() JSONRPCServerConfig {
	return JSONRPCServerConfig{
		MaxOpenConnections: defaultMaxOpenConnections,
	}
}

// Config is the main configuration of the withdrawer daemon.
type Config struct {
	DebugLevel string `long:"debuglevel" description:"Logging level for all subsystems" choice:"trace" choice:"debug" choice:"info" choice:"warn" choice:"error" choice:"fatal"`

	WithdrawerdDir string `long:"withdrawerddir" description:"The base directory that contains withdrawer's data and configuration"`

	ConfigFile string `short:"C" long:"configfile" description:"Path to configuration file"`

	LogFile string `long:"logfile" description:"Path to the log file. Empty disables file logging"`

	Profile string `long:"profile" description:"Enable HTTP profiling on given [addr:]port"`

	CPUProfile string `long:"cpuprofile" description:"Write CPU profile to the specified file"`

	WithdrawerConfig    *WithdrawerConfig    `group:"withdrawerconfig" namespace:"withdrawerconfig"`
	ChainRPCConfig      *ChainRPCConfig      `group:"chainrpcconfig" namespace:"chainrpcconfig"`
	WalletRPCConfig     *WalletRPCConfig     `group:"walletrpcconfig" namespace:"walletrpcconfig"`
	MarketDataConfig    *MarketDataConfig    `group:"marketdataconfig" namespace:"marketdataconfig"`
	MetricsConfig       *MetricsConfig       `group:"metricsconfig" namespace:"metricsconfig"`
	JSONRPCServerConfig *JSONRPCServerConfig `group:"jsonrpcserverconfig" namespace:"jsonrpcserverconfig"`

	// RPCListeners is populated from RawRPCListeners during validation.
	RPCListeners []net.Addr
}

// DefaultConfig returns the daemon configuration with all defaults applied.
func DefaultConfig() Config {
	withdrawerCfg := DefaultWithdrawerConfig()
	chainCfg := DefaultChainRPCConfig()
	walletCfg := DefaultWalletRPCConfig()
	marketCfg := DefaultMarketDataConfig()
	metricsCfg := DefaultMetricsConfig()
	rpcCfg := DefaultJSONRPCServerConfig()

	return Config{
		DebugLevel:          "info",
		WithdrawerdDir:      DefaultWithdrawerdDir,
		ConfigFile:          defaultConfigFile,
		LogFile:             defaultLogFile,
		WithdrawerConfig:    &withdrawerCfg,
		ChainRPCConfig:      &chainCfg,
		WalletRPCConfig:     &walletCfg,
		MarketDataConfig:    &marketCfg,
		MetricsConfig:       &metricsCfg,
		JSONRPCServerConfig: &rpcCfg,
	}
}

// usageError wraps flag usage problems so that callers can print usage
// instead of a stack of errors.
type usageError struct {
	err error
}

func (u *usageError) Error() string {
	return u.err.Error()
}

// LoadConfig initializes and parses the config using a config file and
// command line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
func LoadConfig() (*Config, *logrus.Logger, error) {
	preCfg := DefaultConfig()
	if _, err := flags.Parse(&preCfg); err != nil {
		return nil, nil, err
	}

	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	usageMessage := fmt.Sprintf("Use %s -h to show usage", appName)

	// If the config file path has not been modified by the user, then we'll
	// use the default config file path. However, if the user has modified
	// their default dir, then we should assume they intend to use the config
	// file within it.
	configFileDir := CleanAndExpandPath(preCfg.WithdrawerdDir)
	configFilePath := CleanAndExpandPath(preCfg.ConfigFile)
	switch {
	case configFileDir != DefaultWithdrawerdDir && configFilePath == defaultConfigFile:
		configFilePath = filepath.Join(configFileDir, defaultConfigFilename)
	default:
		configFilePath = CleanAndExpandPath(preCfg.ConfigFile)
	}

	cfg := preCfg
	fileParser := flags.NewParser(&cfg, flags.Default)
	err := flags.NewIniParser(fileParser).ParseFile(configFilePath)
	if err != nil {
		// If it's a parsing related error, then we'll return immediately,
		// otherwise we can proceed as possibly the config file does not
		// exist which is OK.
		if _, ok := err.(*flags.IniError); ok {
			return nil, nil, err
		}
		if _, ok := err.(*flags.Error); ok {
			return nil, nil, err
		}
	}

	flagParser := flags.NewParser(&cfg, flags.Default)
	if _, err := flagParser.Parse(); err != nil {
		return nil, nil, err
	}

	cleanCfg, err := ValidateConfig(&cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("%w\n%s", err, usageMessage)
	}

	logger, err := NewRootLogger(cleanCfg.DebugLevel, CleanAndExpandPath(cleanCfg.LogFile))
	if err != nil {
		return nil, nil, err
	}

	return cleanCfg, logger, nil
}

// ValidateConfig normalizes paths and listener addresses and validates all
// sub configurations.
func ValidateConfig(cfg *Config) (*Config, error) {
	cfg.WithdrawerdDir = CleanAndExpandPath(cfg.WithdrawerdDir)

	if err := os.MkdirAll(cfg.WithdrawerdDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create withdrawerd directory: %w", err)
	}

	if err := cfg.WithdrawerConfig.Validate(); err != nil {
		return nil, err
	}

	if err := cfg.MetricsConfig.Validate(); err != nil {
		return nil, err
	}

	if cfg.JSONRPCServerConfig.MaxOpenConnections <= 0 {
		return nil, fmt.Errorf("maxopenconnections must be positive")
	}

	// At least the default listener must be present.
	if len(cfg.JSONRPCServerConfig.RawRPCListeners) == 0 {
		addr := fmt.Sprintf("localhost:%d", DefaultRPCPort)
		cfg.JSONRPCServerConfig.RawRPCListeners = append(
			cfg.JSONRPCServerConfig.RawRPCListeners, addr,
		)
	}

	listeners, err := NormalizeAddresses(
		cfg.JSONRPCServerConfig.RawRPCListeners,
		strconv.Itoa(DefaultRPCPort),
		net.ResolveTCPAddr,
	)
	if err != nil {
		return nil, &usageError{fmt.Errorf("error normalizing RPC listen addrs: %w", err)}
	}
	cfg.RPCListeners = listeners

	return cfg, nil
}

// NewRootLogger builds the daemon logger. It logs to stdout and, if logFile
// is non empty, additionally to the given file.
func NewRootLogger(debugLevel string, logFile string) (*logrus.Logger, error) {
	logger := logrus.New()

	level, err := logrus.ParseLevel(debugLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid debug level %q: %w", debugLevel, err)
	}
	logger.SetLevel(level)

	writers := []io.Writer{os.Stdout}

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", logFile, err)
		}
		writers = append(writers, f)
	}

	logger.SetOutput(io.MultiWriter(writers...))
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	return logger, nil
}

// CleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func CleanAndExpandPath(path string) string {
	if path == "" {
		return ""
	}

	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		var homeDir string
		u, err := os.UserHomeDir()
		if err == nil {
			homeDir = u
		}

		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but the variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}
