package bofhd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/kolo/xmlrpc"

	"github.com/cerebrum/bofh-go/internal/domain"
)

const errorPrefix = "Cerebrum.modules.bofhd.errors."

// net/rpc flattens faults into "Fault(code): string".
var faultPattern = regexp.MustCompile(`(?s)^Fault\((-?\d+)\):\s*(.*)$`)

// parseFault classifies a fault string from the server.
func parseFault(code int, text string) *domain.RemoteFault {
	fault := &domain.RemoteFault{Kind: domain.FaultOther, Code: code, Message: strings.TrimSpace(text)}
	if rest, ok := strings.CutPrefix(text, errorPrefix); ok {
		for _, kind := range []domain.FaultKind{domain.FaultCerebrum, domain.FaultServerRestart, domain.FaultSessionExpired} {
			if msg, ok := strings.CutPrefix(rest, string(kind)+":"); ok {
				fault.Kind = kind
				fault.Message = strings.TrimSpace(msg)
				return fault
			}
		}
		if i := strings.Index(rest, ":"); i >= 0 {
			fault.Message = strings.TrimSpace(rest[i+1:])
		}
		return fault
	}
	if msg, ok := strings.CutPrefix(text, string(domain.FaultNotImplemented)+":"); ok {
		fault.Kind = domain.FaultNotImplemented
		fault.Message = strings.TrimSpace(msg)
	}
	return fault
}

// classify maps a call error onto the domain errors.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var fault xmlrpc.FaultError
	if errors.As(err, &fault) {
		return parseFault(fault.Code, fault.String)
	}
	var faultPtr *xmlrpc.FaultError
	if errors.As(err, &faultPtr) && faultPtr != nil {
		return parseFault(faultPtr.Code, faultPtr.String)
	}
	var server rpc.ServerError
	if errors.As(err, &server) {
		if m := faultPattern.FindStringSubmatch(string(server)); m != nil {
			code, _ := strconv.Atoi(m[1])
			return parseFault(code, m[2])
		}
		return &domain.RemoteFault{Kind: domain.FaultOther, Message: string(server)}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var netErr net.Error
	var urlErr *url.Error
	if errors.As(err, &netErr) || errors.As(err, &urlErr) || errors.Is(err, rpc.ErrShutdown) {
		return fmt.Errorf("%w: %w", domain.ErrNetwork, err)
	}
	return err
}
