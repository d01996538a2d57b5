package recommendcmder_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/marquee/api/recommend"
	recommendcmder "github.com/papercomputeco/marquee/cmd/marquee/recommend"
	"github.com/papercomputeco/marquee/pkg/engine"
)

var _ = Describe("RecommendAPI", func() {
	var (
		server   *httptest.Server
		received recommend.Request
		status   int
		reply    any
	)

	BeforeEach(func() {
		status = http.StatusOK
		reply = recommend.Response{
			Query:    "sad robot",
			NResults: 2,
			Results: []engine.Recommendation{
				{ID: "60069", Title: "WALL·E (2008)", Year: "2008", Genres: "animation scifi", Tags: "robot", Score: 0.81},
				{ID: "2571", Title: "Matrix, The (1999)", Year: "1999", Genres: "action scifi", Tags: "N/A", Score: 0.52},
			},
		}

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.Method).To(Equal(http.MethodPost))
			Expect(r.URL.Path).To(Equal("/v1/recommend"))
			Expect(json.NewDecoder(r.Body).Decode(&received)).To(Succeed())

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			Expect(json.NewEncoder(w).Encode(reply)).To(Succeed())
		}))
		DeferCleanup(server.Close)
	})

	It("posts the query and count and parses the response", func() {
		resp, err := recommendcmder.RecommendAPI(context.Background(), server.URL, "sad robot", 2)
		Expect(err).NotTo(HaveOccurred())

		Expect(received.Query).To(Equal("sad robot"))
		Expect(received.NResults).NotTo(BeNil())
		Expect(*received.NResults).To(Equal(2))

		Expect(resp.NResults).To(Equal(2))
		Expect(resp.Results[0].ID).To(Equal("60069"))
		Expect(resp.Results[0].Score).To(BeNumerically("~", 0.81, 1e-9))
	})

	It("surfaces the API error message", func() {
		status = http.StatusBadRequest
		reply = map[string]string{"error": "query must be at least 2 characters"}

		_, err := recommendcmder.RecommendAPI(context.Background(), server.URL, "x", 10)
		Expect(err).To(MatchError(ContainSubstring("HTTP 400")))
		Expect(err).To(MatchError(ContainSubstring("at least 2 characters")))
	})

	It("fails on an unreachable server", func() {
		server.Close()
		_, err := recommendcmder.RecommendAPI(context.Background(), server.URL, "sad robot", 10)
		Expect(err).To(MatchError(ContainSubstring("failed to connect")))
	})

	Describe("command", func() {
		execute := func(args ...string) (string, error) {
			var out bytes.Buffer
			cmd := recommendcmder.NewRecommendCmd()
			cmd.SetOut(&out)
			cmd.SetArgs(append(args, "--api-target", server.URL))
			err := cmd.Execute()
			return out.String(), err
		}

		It("renders the recommendations", func() {
			out, err := execute("sad robot", "-n", "2")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("WALL·E (2008)"))
			Expect(out).To(ContainSubstring("score: 0.8100"))
			Expect(out).NotTo(ContainSubstring("N/A"))
		})

		It("prints only ids with --quiet", func() {
			out, err := execute("sad robot", "--quiet")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal("60069\n2571\n"))
		})

		It("requires a query", func() {
			cmd := recommendcmder.NewRecommendCmd()
			cmd.SetArgs([]string{})
			Expect(cmd.Execute()).NotTo(Succeed())
		})
	})
})
