package dashboard

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"testing/fstest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/composable-science/cli/pkg/artifact"
	"github.com/composable-science/cli/pkg/logger"
	"github.com/composable-science/cli/pkg/pipeline"
)

func TestDashboard(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Dashboard Suite")
}

var _ = Describe("Server", func() {
	var server *Server

	BeforeEach(func() {
		steps := []pipeline.StepDeclaration{
			{
				Name:           "data",
				Command:        "python gen.py",
				InputPatterns:  []artifact.Pattern{"scripts/gen.py"},
				OutputPatterns: []artifact.Pattern{"data/*.csv"},
			},
			{
				Name:           "figures",
				Command:        "python figs.py",
				InputPatterns:  []artifact.Pattern{"data/*.csv"},
				OutputPatterns: []artifact.Pattern{"figures/*.png"},
			},
		}
		g, err := pipeline.BuildGraph(steps)
		Expect(err).NotTo(HaveOccurred())

		now := time.Now()
		fsys := fstest.MapFS{
			"scripts/gen.py":    &fstest.MapFile{Data: []byte("x"), ModTime: now.Add(-3 * time.Hour)},
			"data/sample.csv":   &fstest.MapFile{Data: []byte("x"), ModTime: now.Add(-2 * time.Hour)},
			"figures/plot1.png": &fstest.MapFile{Data: []byte("x"), ModTime: now.Add(-1 * time.Hour)},
		}
		evaluator := pipeline.NewEvaluator(artifact.NewResolver(fsys))

		server = NewServer(Config{ListenAddr: ":0"}, g, evaluator, nil, logger.Nop())
	})

	get := func(path string) (*http.Response, []byte) {
		req, err := http.NewRequest(http.MethodGet, path, nil)
		Expect(err).NotTo(HaveOccurred())

		resp, err := server.app.Test(req)
		Expect(err).NotTo(HaveOccurred())

		body, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		return resp, body
	}

	It("responds to ping", func() {
		resp, body := get("/ping")
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(string(body)).To(ContainSubstring("pong"))
	})

	It("returns the pipeline graph in order", func() {
		resp, body := get("/api/pipeline")
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		var pr PipelineResponse
		Expect(json.Unmarshal(body, &pr)).To(Succeed())
		Expect(pr.Order).To(Equal([]string{"data", "figures"}))
		Expect(pr.Steps).To(HaveLen(2))
		Expect(pr.Steps[1].Parents).To(ConsistOf("data"))
	})

	It("returns per-step statuses", func() {
		resp, body := get("/api/status")
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		var sr StatusResponse
		Expect(json.Unmarshal(body, &sr)).To(Succeed())
		Expect(sr.Steps).To(HaveKeyWithValue("data", "up-to-date"))
		Expect(sr.Steps).To(HaveKeyWithValue("figures", "up-to-date"))
	})

	It("returns an empty attestation list without an index", func() {
		resp, body := get("/api/attestations")
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		var entries []AttestationEntry
		Expect(json.Unmarshal(body, &entries)).To(Succeed())
		Expect(entries).To(BeEmpty())
	})
})
