package transcriber

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"

	"hark/netx"
)

type uploadForm struct {
	model    string
	format   string
	language string
	response string
}

func buildForm(audioData []byte, f uploadForm) ([]byte, string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio."+f.format)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(audioData); err != nil {
		return nil, "", err
	}

	writer.WriteField("model", f.model)
	writer.WriteField("response_format", f.response)
	if f.language != "" {
		writer.WriteField("language", f.language)
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body.Bytes(), writer.FormDataContentType(), nil
}

// upload posts the form, retrying transient failures. The body is rebuilt
// from the same bytes on every attempt.
func upload(ctx context.Context, client *TracedClient, provider, url, apiKey string, form []byte, contentType string) (*TracedResponse, error) {
	var resp *TracedResponse
	err := netx.WithRetry(ctx, netx.DefaultRetryConfig(), func() error {
		req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(form))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+apiKey)
		req.Header.Set("Content-Type", contentType)

		r, err := client.Do(req)
		if err != nil {
			return err
		}
		if r.StatusCode != http.StatusOK {
			return &netx.StatusError{Provider: provider, Code: r.StatusCode, Body: string(r.Body)}
		}
		resp = r
		return nil
	})
	return resp, err
}
