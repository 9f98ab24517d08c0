// Package metadata builds token metadata documents and pins them to IPFS
// through Pinata.
package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// DefaultPinataURL is the Pinata API root.
const DefaultPinataURL = "https://api.pinata.cloud"

// DefaultGateway serves pinned content.
const DefaultGateway = "https://ipfs.io/ipfs/"

// ErrNoJWT is returned when pinning is attempted without credentials.
var ErrNoJWT = errors.New("pinata jwt is not configured")

// Extensions are the social links of a token.
type Extensions struct {
	Website  string `json:"website,omitempty"`
	Twitter  string `json:"twitter,omitempty"`
	Telegram string `json:"telegram,omitempty"`
	Discord  string `json:"discord,omitempty"`
}

// IsZero reports whether no link is set.
func (e Extensions) IsZero() bool {
	return e == Extensions{}
}

// Document is the off-chain JSON referenced by a Metaplex metadata URI.
type Document struct {
	Name        string      `json:"name"`
	Symbol      string      `json:"symbol"`
	Image       string      `json:"image,omitempty"`
	Description string      `json:"description,omitempty"`
	Extensions  *Extensions `json:"extensions,omitempty"`
}

// NewDocument assembles a document, dropping empty optional parts.
func NewDocument(name, symbol, image, description string, ext Extensions) Document {
	doc := Document{Name: name, Symbol: symbol, Image: image, Description: description}
	if !ext.IsZero() {
		doc.Extensions = &ext
	}
	return doc
}

// Pinata pins JSON documents and files.
type Pinata struct {
	baseURL string
	jwt     string
	http    *http.Client
	gateway string
}

// NewPinata creates a client. An empty baseURL selects DefaultPinataURL.
func NewPinata(baseURL, jwt string, hc *http.Client) *Pinata {
	if baseURL == "" {
		baseURL = DefaultPinataURL
	}
	if hc == nil {
		hc = &http.Client{Timeout: 60 * time.Second}
	}
	return &Pinata{baseURL: strings.TrimRight(baseURL, "/"), jwt: jwt, http: hc, gateway: DefaultGateway}
}

// GatewayURL returns the public URL of cid.
func (p *Pinata) GatewayURL(cid string) string {
	return p.gateway + cid
}

type pinResponse struct {
	IpfsHash string `json:"IpfsHash"`
}

// PinJSON pins v and returns its CID.
func (p *Pinata) PinJSON(ctx context.Context, v interface{}) (string, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	return p.pin(ctx, "/pinning/pinJSONToIPFS", "application/json", bytes.NewReader(body))
}

// PinFile uploads the content of r under name and returns its CID.
func (p *Pinata) PinFile(ctx context.Context, name string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("copy file: %w", err)
	}
	if err := mw.WriteField("pinataMetadata", fmt.Sprintf(`{"name":%q}`, name)); err != nil {
		return "", err
	}
	if err := mw.WriteField("pinataOptions", `{"cidVersion":0}`); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart: %w", err)
	}
	return p.pin(ctx, "/pinning/pinFileToIPFS", mw.FormDataContentType(), &buf)
}

func (p *Pinata) pin(ctx context.Context, path, contentType string, body io.Reader) (string, error) {
	if p.jwt == "" {
		return "", ErrNoJWT
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, body)
	if err != nil {
		return "", fmt.Errorf("create pin request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+p.jwt)

	resp, err := p.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("pin request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("pinata returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	var out pinResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode pin response: %w", err)
	}
	if out.IpfsHash == "" {
		return "", fmt.Errorf("pinata response without IpfsHash")
	}
	return out.IpfsHash, nil
}
