package auth

import (
	"encoding/json"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"ljdl/pkg/errors"
)

var (
	// tokenObjectPattern grabs the object literal that carries the token
	tokenObjectPattern = regexp.MustCompile(`\{.*"auth_token"\s*:.+\}`)

	// tokenValuePattern is the fallback when the object is not valid JSON
	tokenValuePattern = regexp.MustCompile(`"auth_token"\s*:\s*"([^"]+)"`)
)

// ExtractAuthToken finds the auth token embedded in the inline scripts of a journal page
func ExtractAuthToken(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", errors.Wrap(errors.ErrorTypeAuth, err, "failed to parse journal page")
	}

	scripts := inlineScripts(doc)
	marked := 0
	for _, script := range scripts {
		if !strings.Contains(script, "auth_token") {
			continue
		}
		marked++
		if token := tokenFromScript(script); token != "" {
			return token, nil
		}
	}

	if marked == 0 {
		return "", errors.Auth("can't find any auth_token string in %d page scripts", len(scripts))
	}
	return "", errors.Auth("auth_token present in page scripts but could not be decoded")
}

// inlineScripts returns the text of every script element without a src attribute
func inlineScripts(doc *html.Node) []string {
	var scripts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "script" && !hasAttr(n, "src") {
			var sb strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					sb.WriteString(c.Data)
				}
			}
			scripts = append(scripts, sb.String())
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return scripts
}

func tokenFromScript(script string) string {
	for _, match := range tokenObjectPattern.FindAllString(script, -1) {
		var obj struct {
			AuthToken string `json:"auth_token"`
		}
		if err := json.Unmarshal([]byte(match), &obj); err == nil && obj.AuthToken != "" {
			return obj.AuthToken
		}
	}

	if m := tokenValuePattern.FindStringSubmatch(script); m != nil {
		return m[1]
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}
