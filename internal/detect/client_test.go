package detect

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_Encode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/faces/encode" {
			t.Errorf("expected path '/faces/encode', got '%s'", r.URL.Path)
		}
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Errorf("expected multipart form: %v", err)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("expected 'file' form part: %v", err)
		}

		json.NewEncoder(w).Encode(faceResponse{
			FacesCount: 1,
			Faces: []faceDetection{
				{BBox: []float64{10, 20, 110, 140}, DetScore: 0.99, Embedding: []float32{0.1, 0.2}},
			},
			Model: "buffalo_l",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	faces, err := client.Encode(context.Background(), []byte("jpeg-bytes"))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	if len(faces) != 1 {
		t.Fatalf("expected 1 face, got %d", len(faces))
	}
	want := Box{Left: 10, Top: 20, Right: 110, Bottom: 140}
	if faces[0].Box != want {
		t.Errorf("expected box %+v, got %+v", want, faces[0].Box)
	}
	if len(faces[0].Embedding) != 2 {
		t.Errorf("expected embedding of length 2, got %d", len(faces[0].Embedding))
	}
}

func TestClient_Detect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/faces/detect" {
			t.Errorf("expected path '/faces/detect', got '%s'", r.URL.Path)
		}
		json.NewEncoder(w).Encode(faceResponse{
			FacesCount: 2,
			Faces: []faceDetection{
				{BBox: []float64{0, 0, 50, 50}, DetScore: 0.9},
				{BBox: []float64{60, 10, 120, 80}, DetScore: 0.8},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	boxes, err := client.Detect(context.Background(), []byte("jpeg-bytes"))
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	if len(boxes) != 2 {
		t.Fatalf("expected 2 boxes, got %d", len(boxes))
	}
	if boxes[1].Left != 60 || boxes[1].Bottom != 80 {
		t.Errorf("unexpected second box: %+v", boxes[1])
	}
}

func TestClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.Detect(context.Background(), []byte("jpeg")); err == nil {
		t.Error("expected error for server failure")
	}
}

func TestClient_EncodeRejectsMissingEmbedding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(faceResponse{
			FacesCount: 1,
			Faces:      []faceDetection{{BBox: []float64{0, 0, 10, 10}}},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.Encode(context.Background(), []byte("jpeg")); err == nil {
		t.Error("expected error for face without embedding")
	}
}

func TestBox_ScaleRoundTrip(t *testing.T) {
	b := Box{Top: 100, Right: 300, Bottom: 250, Left: 120}

	down := b.Scale(0.5)
	up := down.Scale(1 / 0.5)

	if up != b {
		t.Errorf("expected exact inverse rescale, got %+v from %+v", up, b)
	}
}
