package shared

import (
	"fmt"

	"github.com/spf13/pflag"

	"siderequest/internal/pixcodec"
)

// ServerFlags holds the sr-server command line. Only flags the user set
// override the loaded config.
type ServerFlags struct {
	fs *pflag.FlagSet

	ConfigPath string
	// WriteConfig, when set, is where the effective config is saved
	// instead of serving.
	WriteConfig string

	addr        string
	store       string
	dataFile    string
	dbPath      string
	redisAddr   string
	defaultSize int
	maxSize     int
	pngLevel    string
	logLevel    string
	logFormat   string
}

func RegisterServerFlags(fs *pflag.FlagSet) *ServerFlags {
	d := DefaultServerConfig()
	f := &ServerFlags{fs: fs}
	fs.StringVarP(&f.ConfigPath, "config", "c", "", "path to YAML config (env SR_CONFIG)")
	fs.StringVar(&f.WriteConfig, "write-config", "", "write the effective config as YAML to this path and exit")
	fs.StringVar(&f.addr, "addr", d.Addr, "listen address")
	fs.StringVar(&f.store, "store", d.Store.Backend, "store backend: file, memory, sqlite or redis")
	fs.StringVar(&f.dataFile, "data-file", d.Store.Path, "JSON balance file for the file backend")
	fs.StringVar(&f.dbPath, "db", d.Store.SQLitePath, "SQLite database for the sqlite backend")
	fs.StringVar(&f.redisAddr, "redis-addr", d.Store.RedisAddr, "Redis address for the redis backend")
	fs.IntVar(&f.defaultSize, "default-size", d.DefaultSize, "image side length when 's' is absent")
	fs.IntVar(&f.maxSize, "max-size", d.MaxSize, fmt.Sprintf("largest accepted image side length (0 = %d)", pixcodec.MaxSide))
	fs.StringVar(&f.pngLevel, "png-compression", d.PNGCompression, "PNG compression: default, none, speed or best")
	fs.StringVar(&f.logLevel, "log-level", d.LogLevel, "log level: debug, info, warn or error")
	fs.StringVar(&f.logFormat, "log-format", d.LogFormat, "log format: text or json")
	return f
}

// Apply copies every explicitly set flag into c.
func (f *ServerFlags) Apply(c *ServerConfig) {
	set := func(name string, apply func()) {
		if f.fs.Changed(name) {
			apply()
		}
	}
	set("addr", func() { c.Addr = f.addr })
	set("store", func() { c.Store.Backend = f.store })
	set("data-file", func() { c.Store.Path = f.dataFile })
	set("db", func() { c.Store.SQLitePath = f.dbPath })
	set("redis-addr", func() { c.Store.RedisAddr = f.redisAddr })
	set("default-size", func() { c.DefaultSize = f.defaultSize })
	set("max-size", func() { c.MaxSize = f.maxSize })
	set("png-compression", func() { c.PNGCompression = f.pngLevel })
	set("log-level", func() { c.LogLevel = f.logLevel })
	set("log-format", func() { c.LogFormat = f.logFormat })
}
