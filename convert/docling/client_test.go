package docling

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/doctalk/convert"
)

func TestClient_Submit(t *testing.T) {
	t.Run("posts multipart with file and options parts", func(t *testing.T) {
		var gotFile []byte
		var gotFilename string
		var gotOptions map[string]any

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/v1/convert/file/async", r.URL.Path)

			require.NoError(t, r.ParseMultipartForm(1<<20))

			file, header, err := r.FormFile("files")
			require.NoError(t, err)
			defer file.Close()
			gotFilename = header.Filename
			gotFile, err = io.ReadAll(file)
			require.NoError(t, err)

			optionsFile, _, err := r.FormFile("options")
			require.NoError(t, err)
			defer optionsFile.Close()
			require.NoError(t, json.NewDecoder(optionsFile).Decode(&gotOptions))

			json.NewEncoder(w).Encode(map[string]string{"task_id": "task-123"})
		}))
		defer server.Close()

		client := NewClient(server.URL)
		taskId, err := client.Submit(context.Background(), []byte("pdf bytes"), "report.pdf")
		require.NoError(t, err)

		assert.Equal(t, "task-123", taskId)
		assert.Equal(t, "report.pdf", gotFilename)
		assert.Equal(t, []byte("pdf bytes"), gotFile)
		assert.Equal(t, "dlparse_v4", gotOptions["pdf_backend"])
		assert.Equal(t, "standard", gotOptions["pipeline"])

		pipeline, ok := gotOptions["pipeline_options"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, true, pipeline["do_ocr"])
		ocr, ok := pipeline["ocr_options"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "TESSERACT", ocr["kind"])
		assert.Equal(t, float64(300), ocr["dpi"])
		assert.Equal(t, true, ocr["force_full_page_ocr"])
	})

	t.Run("non-2xx becomes SubmissionError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
		}))
		defer server.Close()

		client := NewClient(server.URL)
		_, err := client.Submit(context.Background(), []byte("x"), "big.pdf")

		var submissionErr *convert.SubmissionError
		require.ErrorAs(t, err, &submissionErr)
		assert.Equal(t, http.StatusRequestEntityTooLarge, submissionErr.StatusCode)
		assert.Contains(t, submissionErr.Message, "payload too large")
	})

	t.Run("unreachable service becomes SubmissionError", func(t *testing.T) {
		client := NewClient("http://127.0.0.1:1")
		_, err := client.Submit(context.Background(), []byte("x"), "a.pdf")

		var submissionErr *convert.SubmissionError
		require.ErrorAs(t, err, &submissionErr)
		assert.Zero(t, submissionErr.StatusCode)
	})

	t.Run("missing task_id becomes SubmissionError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{})
		}))
		defer server.Close()

		client := NewClient(server.URL)
		_, err := client.Submit(context.Background(), []byte("x"), "a.pdf")

		var submissionErr *convert.SubmissionError
		require.ErrorAs(t, err, &submissionErr)
	})
}

func TestClient_StatusAndResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/status/poll/task-9":
			json.NewEncoder(w).Encode(StatusResponse{TaskId: "task-9", TaskStatus: "started"})
		case "/v1/result/task-9":
			json.NewEncoder(w).Encode(ResultResponse{
				Document: &DocumentPayload{MdContent: "# Title"},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL)

	status, err := client.Status(context.Background(), "task-9")
	require.NoError(t, err)
	assert.Equal(t, "started", status.TaskStatus)

	result, err := client.Result(context.Background(), "task-9")
	require.NoError(t, err)
	require.NotNil(t, result.Document)
	assert.Equal(t, "# Title", result.Document.MdContent)

	_, err = client.Status(context.Background(), "unknown")
	assert.Error(t, err)
}
