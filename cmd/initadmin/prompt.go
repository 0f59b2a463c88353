package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"golang.org/x/term"

	"github.com/ovaphlow/pitchfork/service-construction-go/internal/user"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// credentials returns the admin email and password from the environment,
// prompting for whatever is missing.
func credentials(in *bufio.Reader, out io.Writer, getenv func(string) string) (string, string, error) {
	email := strings.TrimSpace(getenv("ADMIN_EMAIL"))
	if email == "" {
		fmt.Fprint(out, "Admin email: ")
		line, err := in.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", "", err
		}
		email = strings.TrimSpace(line)
	}
	if err := validation.Validate(email, user.EmailRules()...); err != nil {
		return "", "", fmt.Errorf("email: %w", err)
	}

	password := getenv("ADMIN_PASSWORD")
	if password == "" {
		first, err := promptPassword(out, "Password: ")
		if err != nil {
			return "", "", err
		}
		again, err := promptPassword(out, "Repeat password: ")
		if err != nil {
			return "", "", err
		}
		if first != again {
			return "", "", errors.New("passwords do not match")
		}
		password = first
	}
	rules := append([]validation.Rule{validation.Required}, user.PasswordRules()...)
	if err := validation.Validate(password, rules...); err != nil {
		return "", "", fmt.Errorf("password: %w", err)
	}
	return email, password, nil
}

func promptPassword(out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(out)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}
