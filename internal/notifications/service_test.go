package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"curator/internal/config"
	"curator/internal/notifications"
	"curator/internal/testsupport"
)

func TestNewServiceWithoutTopicIsNoop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = ""
	service := notifications.NewService(cfg)

	if err := service.NotifyFileMoved(context.Background(), "a.txt", "Documents", "/organized/Documents/a.txt"); err != nil {
		t.Fatalf("noop service must never fail: %v", err)
	}
	if err := service.TestNotification(context.Background()); err != nil {
		t.Fatalf("noop test notification failed: %v", err)
	}
}

func TestNtfyServicePublishes(t *testing.T) {
	type captured struct {
		title string
		tags  string
		body  string
	}
	requests := make(chan captured, 4)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests <- captured{
			title: r.Header.Get("Title"),
			tags:  r.Header.Get("Tags"),
			body:  string(body),
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = server.URL
	service := notifications.NewService(cfg)

	ctx := context.Background()
	if err := service.NotifyFileMoved(ctx, "photo.jpg", "Images", "/organized/Images/photo.jpg"); err != nil {
		t.Fatalf("NotifyFileMoved failed: %v", err)
	}
	got := <-requests
	if got.title != "Curator - File Organized" {
		t.Fatalf("unexpected title: %q", got.title)
	}
	if !strings.Contains(got.body, "photo.jpg") || !strings.Contains(got.body, "Images") {
		t.Fatalf("unexpected body: %q", got.body)
	}

	if err := service.NotifyDuplicateDetected(ctx, "copy.jpg", []string{"/organized/Images/photo.jpg"}); err != nil {
		t.Fatalf("NotifyDuplicateDetected failed: %v", err)
	}
	got = <-requests
	if !strings.Contains(got.tags, "duplicate") {
		t.Fatalf("expected duplicate tag, got %q", got.tags)
	}

	if err := service.NotifyPermanentFailure(ctx, "/in/stuck.bin", 10, errors.New("locked")); err != nil {
		t.Fatalf("NotifyPermanentFailure failed: %v", err)
	}
	got = <-requests
	if !strings.Contains(got.body, "10 attempts") {
		t.Fatalf("expected attempt count in body, got %q", got.body)
	}

	if err := service.NotifyBatchCompleted(ctx, 5, 1, 3*time.Second); err != nil {
		t.Fatalf("NotifyBatchCompleted failed: %v", err)
	}
	got = <-requests
	if !strings.Contains(got.body, "5 files") {
		t.Fatalf("expected processed count in body, got %q", got.body)
	}
}

func TestNtfyServiceSurfacesHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic over quota", http.StatusTooManyRequests)
	}))
	defer server.Close()

	cfg := &config.Config{}
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.RequestTimeout = 2
	service := notifications.NewService(cfg)

	err := service.TestNotification(context.Background())
	if err == nil {
		t.Fatal("expected error from non-2xx response")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected status in error, got %v", err)
	}
}
