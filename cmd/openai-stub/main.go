// Command openai-stub is a deterministic OpenAI-compatible server for local
// development and end-to-end tests. It recognizes the classify, pick,
// summarize and merge prompts by their system message.
package main

import (
	"encoding/json"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	model := os.Getenv("MODEL_ID")
	if strings.TrimSpace(model) == "" {
		model = "test-model"
	}
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8081"
	}

	log.Info().Str("addr", addr).Str("model", model).Msg("openai-stub listening")
	if err := http.ListenAndServe(addr, newMux(model)); err != nil {
		log.Fatal().Err(err).Msg("serve")
	}
}

func newMux(model string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   []map[string]any{{"id": model, "object": "model"}},
		})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		var sys, user string
		for _, m := range req.Messages {
			switch m.Role {
			case "system":
				sys = strings.TrimSpace(m.Content)
			case "user":
				user = m.Content
			}
		}
		content, ok := reply(sys, user)
		if !ok {
			http.Error(w, "unexpected system", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "chat.completion",
			"model":  model,
			"choices": []map[string]any{
				{"index": 0, "finish_reason": "stop", "message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	})
	return mux
}

var categoryWords = map[string][]string{
	"technology":    {"ai", "chip", "software", "apple", "google", "startup", "tech", "iphone"},
	"business":      {"stocks", "market", "markets", "earnings", "economy", "inflation", "bank"},
	"sports":        {"football", "match", "league", "cup", "nba", "tennis", "olympics", "final"},
	"science":       {"space", "nasa", "climate", "study", "research", "physics"},
	"entertainment": {"film", "movie", "music", "album", "celebrity", "oscars"},
	"health":        {"covid", "vaccine", "health", "cancer", "hospital"},
	"politics":      {"election", "senate", "parliament", "president", "vote"},
}

var (
	urlRe      = regexp.MustCompile(`https?://\S+`)
	pickCount  = regexp.MustCompile(`Pick up to (\d+) URLs`)
	mergeCount = regexp.MustCompile(`Write at most (\d+) points`)
	numbered   = regexp.MustCompile(`^\s*\d+\.\s+(.+)$`)
	sentence   = regexp.MustCompile(`[^.!?]+[.!?]`)
)

// reply picks a canned answer for the prompt family named by sys.
func reply(sys, user string) (string, bool) {
	switch {
	case strings.HasPrefix(sys, "Classify a news search query"):
		return classifyReply(user), true
	case strings.HasPrefix(sys, "You select the most relevant news articles"):
		k := atoiOr(pickCount.FindStringSubmatch(user), 3)
		urls := urlRe.FindAllString(user, k)
		return encode(urls), true
	case strings.HasPrefix(sys, "You extract facts"):
		text := user
		if i := strings.Index(user, "Text:\n"); i >= 0 {
			text = user[i+len("Text:\n"):]
		}
		var pts []string
		for _, s := range sentence.FindAllString(text, 3) {
			if s = strings.TrimSpace(s); s != "" {
				pts = append(pts, s)
			}
		}
		return encode(pts), true
	case strings.HasPrefix(sys, "You merge bullet points"):
		n := atoiOr(mergeCount.FindStringSubmatch(user), 5)
		var pts []string
		for _, line := range strings.Split(user, "\n") {
			if m := numbered.FindStringSubmatch(line); m != nil && len(pts) < n {
				pts = append(pts, m[1])
			}
		}
		return encode(pts), true
	}
	return "", false
}

func classifyReply(user string) string {
	words := strings.Fields(strings.ToLower(strings.TrimPrefix(user, "Query: ")))
	for _, cat := range []string{"technology", "business", "sports", "science", "entertainment", "health", "politics"} {
		for _, w := range words {
			for _, k := range categoryWords[cat] {
				if w == k {
					return `{"category": "` + cat + `"}`
				}
			}
		}
	}
	return `{"category": "general"}`
}

func atoiOr(m []string, def int) int {
	if len(m) < 2 {
		return def
	}
	n := 0
	for _, c := range m[1] {
		n = n*10 + int(c-'0')
	}
	if n <= 0 {
		return def
	}
	return n
}

func encode(v []string) string {
	if v == nil {
		v = []string{}
	}
	b, _ := json.Marshal(v)
	return string(b)
}
