// Command hashpw prints a bcrypt hash suitable for ADMIN_PASSWORD_HASH.
//
//	hashpw 's3cret'
//	echo 's3cret' | hashpw
package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/danielhkuo/classvote/auth"
)

func main() {
	var password string
	if len(os.Args) > 1 {
		password = os.Args[1]
	} else {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			slog.Error("failed to read password from stdin", "error", err)
			os.Exit(1)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	if password == "" {
		slog.Error("password must not be empty")
		os.Exit(1)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
