package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/goliatone/go-gfbridge/components/gravityforms"
	"github.com/goliatone/go-gfbridge/pkg/wpgraphql"
)

const maxPostPage = 100

type postView struct {
	Title      string   `json:"title"`
	Date       string   `json:"date"`
	Categories []string `json:"categories"`
	Excerpt    string   `json:"excerpt"`
	URI        string   `json:"uri"`
	Content    string   `json:"content"`
}

func (s *server) listPosts(w http.ResponseWriter, r *http.Request) {
	first := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("first")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPostPage {
			writeJSON(w, http.StatusBadRequest, gravityforms.ErrorResponse{StatusCode: http.StatusBadRequest, Message: "Invalid first"})
			return
		}
		first = n
	}

	posts, err := s.graphql.Posts(r.Context(), first)
	if err != nil {
		s.logger.Error("list posts", "error", err)
		writeJSON(w, http.StatusBadGateway, gravityforms.ErrorResponse{StatusCode: http.StatusBadGateway, Message: http.StatusText(http.StatusBadGateway)})
		return
	}

	out := make([]postView, 0, len(posts))
	for _, post := range posts {
		out = append(out, toPostView(post))
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": out})
}

func toPostView(post wpgraphql.Post) postView {
	return postView{
		Title:      post.Title,
		Date:       post.Date,
		Categories: post.CategoryNames(),
		Excerpt:    post.Excerpt,
		URI:        post.URI,
		Content:    post.Content,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
