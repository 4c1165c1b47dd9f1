package http

import (
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/zefruta/storefront/pkg/httpx"
)

// ProxyPrefix is the same-origin path the Gateway uses when deployed.
const ProxyPrefix = "/api/proxy"

// NewProxy forwards /api/proxy/<path>?<query> to <backend>/<path>?<query>.
// The Authorization header passes through; cookies do not.
//
//	@Summary		Backend proxy
//	@Description	Same-origin pass-through to the marketplace backend. Method, body, query
//	@Description	and Authorization are forwarded unchanged.
//	@Tags			Proxy
//	@Param			path			path		string	true	"Backend path"
//	@Param			Authorization	header		string	false	"Bearer token"
//	@Success		200				{object}	object	"Backend answer"
//	@Failure		502				{object}	map[string]string
//	@Router			/api/proxy/{path} [get]
//	@Router			/api/proxy/{path} [post]
//	@Router			/api/proxy/{path} [put]
//	@Router			/api/proxy/{path} [delete]
func NewProxy(backend *url.URL, logger *slog.Logger) http.Handler {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(backend)
			pr.Out.URL.Path = singleJoin(backend.Path, strings.TrimPrefix(pr.In.URL.Path, ProxyPrefix))
			pr.Out.URL.RawPath = ""
			pr.Out.Host = backend.Host
			pr.Out.Header.Del("Cookie")
			pr.SetXForwarded()
		},
		ModifyResponse: func(resp *http.Response) error {
			resp.Header.Set("Access-Control-Allow-Origin", "*")
			resp.Header.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			resp.Header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error("proxy request failed", "path", r.URL.Path, "err", err)
			httpx.WriteError(w, http.StatusBadGateway, "bad_gateway", "Erro interno do servidor")
		},
	}
}

func singleJoin(a, b string) string {
	a = strings.TrimSuffix(a, "/")
	if !strings.HasPrefix(b, "/") {
		b = "/" + b
	}
	return a + b
}
