package twilio

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// SignatureHeader carries Twilio's request signature.
const SignatureHeader = "X-Twilio-Signature"

// ValidateSignature reports whether r was signed by Twilio for webhookURL.
func ValidateSignature(r *http.Request, authToken, webhookURL string) bool {
	signature := r.Header.Get(SignatureHeader)
	if signature == "" {
		return false
	}
	if err := r.ParseForm(); err != nil {
		return false
	}
	expected := Sign(authToken, webhookURL, r.PostForm)
	return hmac.Equal([]byte(signature), []byte(expected))
}

// Sign computes the signature Twilio sends for a POST to webhookURL with params.
func Sign(authToken, webhookURL string, params url.Values) string {
	h := hmac.New(sha1.New, []byte(authToken))
	h.Write([]byte(signaturePayload(webhookURL, params)))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// signaturePayload is the URL followed by every key and value, keys sorted.
func signaturePayload(webhookURL string, params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(webhookURL)
	for _, key := range keys {
		for _, value := range params[key] {
			b.WriteString(key)
			b.WriteString(value)
		}
	}
	return b.String()
}

// RequestURL rebuilds the public URL Twilio signed. Behind a proxy the scheme
// and host come from X-Forwarded-Proto and X-Forwarded-Host.
func RequestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		scheme = strings.TrimSpace(strings.Split(p, ",")[0])
	}
	host := r.Host
	if h := r.Header.Get("X-Forwarded-Host"); h != "" {
		host = strings.TrimSpace(strings.Split(h, ",")[0])
	}
	return scheme + "://" + host + r.URL.RequestURI()
}
