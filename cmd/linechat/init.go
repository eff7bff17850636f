package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/wtask/linechat/internal/version"
)

type role int

const (
	_ role = iota
	roleServer
	roleClient
)

func (r role) String() string {
	switch r {
	case roleServer:
		return "server"
	case roleClient:
		return "client"
	default:
		return "unknown role"
	}
}

var (
	// BinaryName - name of run application binary
	BinaryName = strings.TrimSuffix(filepath.Base(os.Args[0]), filepath.Ext(os.Args[0]))

	//lint:ignore ST1005 message is a part of user interface
	errWrongFlag = errors.New("Wrong flag! Use: '--server' or '--client'")
)

// parseRole - exactly one argument is expected, it selects the role of the process.
func parseRole(args []string) (role, error) {
	if len(args) != 1 {
		return 0, errWrongFlag
	}
	switch args[0] {
	case "--server":
		return roleServer, nil
	case "--client":
		return roleClient, nil
	default:
		return 0, errWrongFlag
	}
}

func printUsage(out io.Writer) {
	fmt.Fprintf(out, "Line chat over TCP, %s\n\n\t%s --server|--client\n\n", version.Get(), BinaryName)
	fmt.Fprint(out, `Environment:

	BIND_HOST            server listen host (all interfaces)
	SERVER_HOST          client target host (localhost)
	PORT                 TCP port (9999)
	WRITE_TIMEOUT        single write limit, 0 disables it (10s)
	MAX_LINE_BYTES       inbound line limit (65536)
	MAX_CONNECTIONS      concurrent connections, 0 is unlimited (0)
	LINE_RATE            inbound lines per second per connection, 0 is unlimited (0)
	LINE_BURST           inbound lines burst (1)
	HISTORY_GREETS       latest lines pushed to new connection (0)
	OPS_ADDRESS          HTTP address of /metrics, /healthz and /ws, empty disables it
	WS_ALLOWED_ORIGINS   comma separated browser origins allowed to use /ws
	SHUTDOWN_TIMEOUT     graceful shutdown limit (10s)
	CLIENT_NAME          client nickname (guest)
	LOG_LEVEL            DEBUG, INFO, WARN or ERROR (INFO)

`)
}
