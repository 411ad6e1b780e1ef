// internal/handlers/translator.go
package handlers

import "net/http"

// TranslatorInfoHandler handles GET /api/translator/info: the loaded state
// and label set of the sign-language model.
func TranslatorInfoHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.Translator.Info())
	}
}
