// Package basetools provides the built-in tools an agent can carry next to
// the skill tools: final_answer, which ends a run, and visit_webpage, which
// fetches a public page as plain text.
package basetools

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/germanamz/skillbridge/pkg/tools/toolbox"
	"golang.org/x/net/html"
)

// FinalAnswerName is the name of the tool that ends an agent run.
const FinalAnswerName = "final_answer"

const (
	maxBodySize   = 1 << 20
	maxPageLength = 20000
)

type finalAnswerInput struct {
	Answer string `json:"answer" jsonschema:"the final answer to the task"`
}

// FinalAnswer returns the tool the model calls to hand back its answer.
func FinalAnswer() toolbox.Tool {
	return toolbox.MustTyped(FinalAnswerName, "Provides the final answer to the task and ends the run.",
		func(_ context.Context, in finalAnswerInput) (string, error) {
			return in.Answer, nil
		})
}

// WebOptions configures VisitWebpage.
type WebOptions struct {
	Client *http.Client
	// AllowPrivate disables the private address guard. Only tests set it.
	AllowPrivate bool
}

type visitInput struct {
	URL string `json:"url" jsonschema:"absolute http or https URL of the page"`
}

// VisitWebpage returns a tool that fetches a URL and returns its visible text.
func VisitWebpage(opts WebOptions) toolbox.Tool {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
		if !opts.AllowPrivate {
			client.Transport = publicOnlyTransport()
		}
	}

	return toolbox.MustTyped("visit_webpage", "Fetches a web page and returns its text content.",
		func(ctx context.Context, in visitInput) (string, error) {
			return visit(ctx, client, in.URL)
		})
}

func visit(ctx context.Context, client *http.Client, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("visit_webpage: invalid url %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("visit_webpage: %w", err)
	}

	resp, err := client.Do(req) //nolint:gosec // guarded by publicOnlyTransport
	if err != nil {
		return "", fmt.Errorf("visit_webpage: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("visit_webpage: %s returned status %d", u, resp.StatusCode)
	}

	body := io.LimitReader(resp.Body, maxBodySize)
	if !strings.Contains(resp.Header.Get("Content-Type"), "html") {
		raw, err := io.ReadAll(body)
		if err != nil {
			return "", fmt.Errorf("visit_webpage: read body: %w", err)
		}
		return truncate(string(raw)), nil
	}

	text, err := htmlText(body)
	if err != nil {
		return "", fmt.Errorf("visit_webpage: parse html: %w", err)
	}

	return truncate(text), nil
}

// htmlText extracts visible text, one block per line.
func htmlText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var lines []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "head":
				return
			}
		}
		if n.Type == html.TextNode {
			if s := strings.Join(strings.Fields(n.Data), " "); s != "" {
				lines = append(lines, s)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.Join(lines, "\n"), nil
}

func truncate(s string) string {
	if len(s) <= maxPageLength {
		return s
	}
	return s[:maxPageLength] + "\n..._This content has been truncated_..."
}

var privateRanges = func() []*net.IPNet {
	cidrs := []string{
		"127.0.0.0/8", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16",
		"169.254.0.0/16", "::1/128", "fc00::/7", "fe80::/10",
	}
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, n, _ := net.ParseCIDR(cidr)
		nets = append(nets, n)
	}
	return nets
}()

func isPrivateIP(ip net.IP) bool {
	return slices.ContainsFunc(privateRanges, func(n *net.IPNet) bool { return n.Contains(ip) })
}

// publicOnlyTransport refuses to dial private or loopback addresses. The
// check happens on the resolved IP, at connect time.
func publicOnlyTransport() *http.Transport {
	dialer := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}

	return &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, port, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, err
			}

			ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
			if err != nil {
				return nil, err
			}
			if len(ips) == 0 {
				return nil, fmt.Errorf("no addresses for %s", host)
			}

			for _, ip := range ips {
				if isPrivateIP(ip.IP) {
					return nil, fmt.Errorf("connection to private address %s blocked", ip.IP)
				}
			}

			return dialer.DialContext(ctx, network, net.JoinHostPort(ips[0].IP.String(), port))
		},
	}
}
