package cli

import (
	"strconv"
	"strings"

	"github.com/wagiedev/qrexec-go/internal/errors"
)

// BuildArgs constructs the bridge command arguments.
//
// The local program, when set, is started by the bridge itself with its
// standard streams connected to the remote service.
func BuildArgs(
	bufferSize int,
	target string,
	service string,
	localProgram string,
	localArgs []string,
) []string {
	args := make([]string, 0, 4+len(localArgs))
	args = append(args,
		"--buffer-size="+strconv.Itoa(bufferSize),
		target,
		service,
	)

	if localProgram != "" {
		args = append(args, localProgram)
		args = append(args, localArgs...)
	}

	return args
}

// ValidateTarget checks a target qube name. Besides plain qube names the
// bridge accepts keywords such as "@default" and "@dispvm:template".
func ValidateTarget(target string) error {
	if target == "" {
		return &errors.InvalidArgumentError{Field: "target", Value: target, Reason: "must not be empty"}
	}

	for _, r := range target {
		if !isNameRune(r) && r != '@' && r != ':' {
			return &errors.InvalidArgumentError{
				Field:  "target",
				Value:  target,
				Reason: "contains character " + strconv.QuoteRune(r),
			}
		}
	}

	return nil
}

// ValidateService checks a service name with an optional "+argument" suffix.
func ValidateService(service string) error {
	name, arg, _ := strings.Cut(service, "+")
	if name == "" {
		return &errors.InvalidArgumentError{Field: "service", Value: service, Reason: "service name must not be empty"}
	}

	for _, r := range name {
		if !isNameRune(r) {
			return &errors.InvalidArgumentError{
				Field:  "service",
				Value:  service,
				Reason: "service name contains character " + strconv.QuoteRune(r),
			}
		}
	}

	for _, r := range arg {
		if !isNameRune(r) && r != '+' {
			return &errors.InvalidArgumentError{
				Field:  "service",
				Value:  service,
				Reason: "service argument contains character " + strconv.QuoteRune(r),
			}
		}
	}

	return nil
}

func isNameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '.', r == '_', r == '-':
		return true
	default:
		return false
	}
}
