package dataset

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/textproto"
	"strings"
	"testing"
)

// serveFTP runs a single-session FTP server that serves files by path over
// an extended passive data connection. It returns the server address.
func serveFTP(t *testing.T, files map[string]string) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		conn := textproto.NewConn(c)
		defer conn.Close()

		var data net.Listener
		defer func() {
			if data != nil {
				data.Close()
			}
		}()

		conn.PrintfLine("220 ready")
		for {
			line, err := conn.ReadLine()
			if err != nil {
				return
			}
			verb, arg, _ := strings.Cut(line, " ")
			switch strings.ToUpper(verb) {
			case "USER":
				conn.PrintfLine("331 password required")
			case "PASS":
				conn.PrintfLine("230 logged in")
			case "TYPE":
				conn.PrintfLine("200 type set")
			case "EPSV":
				if data, err = net.Listen("tcp", "127.0.0.1:0"); err != nil {
					conn.PrintfLine("425 no data connection")
					continue
				}
				conn.PrintfLine("229 Entering Extended Passive Mode (|||%d|)", data.Addr().(*net.TCPAddr).Port)
			case "RETR":
				body, ok := files[arg]
				if !ok || data == nil {
					conn.PrintfLine("550 %s: not found", arg)
					continue
				}
				dc, err := data.Accept()
				if err != nil {
					conn.PrintfLine("425 no data connection")
					continue
				}
				conn.PrintfLine("150 opening data connection")
				fmt.Fprint(dc, body)
				dc.Close()
				data.Close()
				data = nil
				conn.PrintfLine("226 transfer complete")
			case "QUIT":
				conn.PrintfLine("221 bye")
				return
			default:
				conn.PrintfLine("502 not implemented")
			}
		}
	}()

	return ln.Addr().String()
}

func TestOpen_FTP(t *testing.T) {
	addr := serveFTP(t, map[string]string{"/pub/skyscrapers.csv": sampleCSV})

	ds, err := Open(context.Background(), "ftp://"+addr+"/pub/skyscrapers.csv")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if ds.Len() != 5 {
		t.Errorf("Len() = %d, want 5", ds.Len())
	}
	if got := ds.Structures()[0].Name; got != "Burj Khalifa" {
		t.Errorf("first structure = %q, want Burj Khalifa", got)
	}
}

func TestOpen_FTPMissingFile(t *testing.T) {
	addr := serveFTP(t, map[string]string{})

	_, err := Open(context.Background(), "ftp://"+addr+"/pub/missing.csv")
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("error = %v, want *LoadError", err)
	}
	if !strings.Contains(err.Error(), "ftp retr") {
		t.Errorf("error = %v, want ftp retr failure", err)
	}
}
