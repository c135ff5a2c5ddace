package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"
)

// NetAddress holds a host and port. It implements flag.Value.
type NetAddress struct {
	Host string
	Port int
}

// DurationList is a comma-separated list of durations. It implements
// flag.Value.
type DurationList []time.Duration

// ParseFlags parses the client flags out of args. A fresh FlagSet is used on
// every call so it can be invoked more than once per process.
//
// Flags:
//
//	-a sync server base URL
//	-d SQLite DSN
//	-c/-config json file path with configs
//	-hooks-address hook listener address in format [host]:[port]
//	-request-timeout adapter request timeout (e.g. "30s")
//	-retry-count adapter retry count
//	-sync-interval background sync interval (e.g. "5m")
//	-backoff-ladder comma-separated backoff steps (e.g. "60s,120s")
//	-log-file rotating log file path
//	-log-max-size log rotation size in MB
func ParseFlags(args []string) (*StructuredConfig, error) {
	var (
		adapterAddress string
		databaseDSN    string
		jsonConfigPath string
		hooksAddress   NetAddress
		requestTimeout time.Duration
		retryCount     int
		syncInterval   time.Duration
		backoffLadder  DurationList
		logFile        string
		logMaxSize     int
	)

	fs := flag.NewFlagSet("field-sync", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&adapterAddress, "a", "", "Sync server base URL")
	fs.StringVar(&databaseDSN, "d", "", "SQLite DSN")
	fs.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	fs.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	fs.Var(&hooksAddress, "hooks-address", "Hook listener address host:port")
	fs.DurationVar(&requestTimeout, "request-timeout", 0, "Adapter request timeout (e.g. 30s)")
	fs.IntVar(&retryCount, "retry-count", 0, "Adapter retry count")
	fs.DurationVar(&syncInterval, "sync-interval", 0, "Background sync interval (e.g. 5m)")
	fs.Var(&backoffLadder, "backoff-ladder", "Comma-separated backoff steps (e.g. 60s,120s)")
	fs.StringVar(&logFile, "log-file", "", "Log file path")
	fs.IntVar(&logMaxSize, "log-max-size", 0, "Log rotation size in MB")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("error parsing flags: %w", err)
	}

	return &StructuredConfig{
		Storage: Storage{
			DB: DB{
				DSN: databaseDSN,
			},
		},
		Adapter: Adapter{
			HTTPAddress:    adapterAddress,
			RequestTimeout: requestTimeout,
			RetryCount:     retryCount,
		},
		Workers: Workers{
			SyncInterval:  syncInterval,
			BackoffLadder: []time.Duration(backoffLadder),
		},
		Hooks: Hooks{
			Address: hooksAddress.String(),
		},
		Log: Log{
			FilePath:  logFile,
			MaxSizeMB: logMaxSize,
		},
		JSONFilePath: jsonConfigPath,
	}, nil
}

// String returns host:port, or "" when nothing was set.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return a.Host + ":" + strconv.Itoa(a.Port)
}

// Set parses host:port. The host must be "localhost" or an IP address.
func (a *NetAddress) Set(s string) error {
	hostAndPort := strings.Split(s, ":")
	if len(hostAndPort) != 2 {
		return errors.New("need address in a form `host:port`")
	}

	host := hostAndPort[0]
	port, err := strconv.Atoi(hostAndPort[1])
	if err != nil {
		return err
	}

	if port < 1 {
		return errors.New("port number is a positive integer")
	}

	if host != "localhost" {
		ip := net.ParseIP(hostAndPort[0])
		if ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}

func (d *DurationList) String() string {
	if d == nil {
		return ""
	}
	parts := make([]string, 0, len(*d))
	for _, step := range *d {
		parts = append(parts, step.String())
	}
	return strings.Join(parts, ",")
}

func (d *DurationList) Set(s string) error {
	list, err := parseDurationList(s)
	if err != nil {
		return err
	}
	*d = list
	return nil
}

func parseDurationList(s string) (DurationList, error) {
	var list DurationList
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		step, err := time.ParseDuration(part)
		if err != nil {
			return nil, fmt.Errorf("invalid duration %q: %w", part, err)
		}
		list = append(list, step)
	}
	return list, nil
}
