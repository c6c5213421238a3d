// Package config builds the process configuration from the environment and an optional file.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"go.trai.ch/tea/internal/core/domain"
	"go.trai.ch/tea/internal/core/ports"
	"go.trai.ch/zerr"
)

// Configuration keys and the environment variables bound to them.
var envBindings = [][2]string{
	{"prefix", "TEA_PREFIX"},
	{"pantries", "TEA_PANTRY_PATH"},
	{"cache", "TEA_CACHE_DIR"},
	{"dist_url", "TEA_DIST_URL"},
	{"pantry_url", "TEA_PANTRY_URL"},
	{"token", "TEA_TOKEN"},
	{"compression", "TEA_COMPRESSION"},
	{"ci", "CI"},
	{"prefer_installed", "TEA_PREFER_INSTALLED"},
	{"concurrency", "TEA_CONCURRENCY"},
}

// Loader implements ports.ConfigLoader with viper.
type Loader struct {
	logger  ports.Logger
	goos    string
	homeDir func() (string, error)
}

// NewLoader creates a Loader for the running platform.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{
		logger:  logger,
		goos:    runtime.GOOS,
		homeDir: os.UserHomeDir,
	}
}

// Load reads the environment and <prefix>/tea.xyz/etc/config.yaml. The environment wins over the file.
func (l *Loader) Load() (domain.Config, error) {
	v := viper.New()
	for _, b := range envBindings {
		if err := v.BindEnv(b[0], b[1]); err != nil {
			return domain.Config{}, zerr.With(zerr.Wrap(err, domain.ErrConfigInvalid.Error()), "key", b[0])
		}
	}

	v.SetDefault("dist_url", domain.DefaultDistURL)
	v.SetDefault("pantry_url", domain.DefaultPantryURL)
	v.SetDefault("concurrency", strconv.Itoa(runtime.NumCPU()))
	v.SetDefault("prefer_installed", "true")

	prefix, err := l.prefix(v)
	if err != nil {
		return domain.Config{}, err
	}

	if err := readConfigFile(v, domain.ConfigFilePath(prefix)); err != nil {
		return domain.Config{}, err
	}

	pantries, err := pantryPaths(v)
	if err != nil {
		return domain.Config{}, err
	}
	if len(pantries) == 0 {
		pantries = []string{domain.DefaultPantryPath(prefix)}
	}

	cfg := domain.NewConfig(pantries)
	cfg.Prefix = prefix
	cfg.CacheDir = domain.DefaultCachePath(prefix)
	if raw := v.GetString("cache"); raw != "" {
		if cfg.CacheDir, err = absolute("cache", raw); err != nil {
			return domain.Config{}, err
		}
	}
	cfg.DistURL = strings.TrimRight(v.GetString("dist_url"), "/")
	cfg.PantryURL = v.GetString("pantry_url")
	cfg.Token = v.GetString("token")
	cfg.CI = l.boolize(v.GetString("ci"))

	if cfg.Compression, err = l.compression(v.GetString("compression"), cfg.CI); err != nil {
		return domain.Config{}, err
	}

	cfg.PreferInstalled, err = strconv.ParseBool(v.GetString("prefer_installed"))
	if err != nil {
		return domain.Config{}, invalid("prefer_installed", v.GetString("prefer_installed"))
	}

	cfg.Concurrency, err = strconv.Atoi(v.GetString("concurrency"))
	if err != nil || cfg.Concurrency < 1 {
		return domain.Config{}, invalid("concurrency", v.GetString("concurrency"))
	}

	return cfg, nil
}

func (l *Loader) prefix(v *viper.Viper) (string, error) {
	if p := v.GetString("prefix"); p != "" {
		return absolute("prefix", p)
	}

	home, err := l.homeDir()
	if err != nil {
		return "", zerr.Wrap(err, domain.ErrHomeDirUnavailable.Error())
	}
	if home == "" {
		return "", domain.ErrHomeDirUnavailable
	}
	return filepath.Join(home, ".tea"), nil
}

// compression picks xz on interactive macOS machines and gz everywhere else unless configured.
func (l *Loader) compression(raw string, ci bool) (domain.Compression, error) {
	if raw == "" {
		if l.goos == "darwin" && !ci {
			return domain.CompressionXZ, nil
		}
		return domain.CompressionGzip, nil
	}

	c, err := domain.ParseCompression(raw)
	if err != nil {
		return "", invalid("compression", raw)
	}
	return c, nil
}

// boolize interprets CI style flags. Unrecognised values count as false.
func (l *Loader) boolize(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	case "", "0", "false", "no", "off":
		return false
	default:
		l.logger.Warn("ignoring unrecognised CI value " + strconv.Quote(raw))
		return false
	}
}

func readConfigFile(v *viper.Viper, path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", path)
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", path)
	}
	return nil
}

// absolute resolves a configured path against the working directory at load time.
func absolute(key, p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", zerr.With(zerr.With(zerr.Wrap(err, domain.ErrConfigInvalid.Error()), "key", key), "value", p)
	}
	return abs, nil
}

// pantryPaths accepts an OS path list from the environment or a YAML list from the file.
// Relative entries are resolved against the working directory.
func pantryPaths(v *viper.Viper) ([]string, error) {
	var paths []string
	if raw, ok := v.Get("pantries").(string); ok {
		paths = filepath.SplitList(raw)
	} else {
		paths = v.GetStringSlice("pantries")
	}

	out := paths[:0]
	for _, p := range paths {
		if p = strings.TrimSpace(p); p == "" {
			continue
		}
		abs, err := absolute("pantries", p)
		if err != nil {
			return nil, err
		}
		out = append(out, abs)
	}
	return out, nil
}

func invalid(key, value string) error {
	return zerr.With(zerr.With(domain.ErrConfigInvalid, "key", key), "value", value)
}
