// Command seed loads a demo catalog into a running server through the
// public API: one term, a handful of rooms and subjects, and a section
// with an assigned curriculum. Useful for local development and demos.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type fixture struct {
	Term     map[string]interface{}   `json:"term"`
	Rooms    []map[string]interface{} `json:"rooms"`
	Subjects []map[string]interface{} `json:"subjects"`
	Sections []map[string]interface{} `json:"sections"`
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

func main() {
	var (
		base     string
		email    string
		password string
		dataPath string
		timeout  time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&email, "email", "admin@example.com", "Admin login email")
	flag.StringVar(&password, "password", "admin123", "Admin login password")
	flag.StringVar(&dataPath, "data", filepath.Join("scripts", "seed", "fixture.json"), "Path to JSON fixture file")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "HTTP client timeout")
	flag.Parse()

	fix, err := loadFixture(dataPath)
	if err != nil {
		log.Fatalf("failed to load fixture: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	token, err := login(client, base, email, password)
	if err != nil {
		log.Fatalf("login failed: %v", err)
	}

	termID, err := createAndID(client, base, token, "/api/v1/terms", fix.Term)
	if err != nil {
		log.Fatalf("failed to create term: %v", err)
	}
	if _, err := request(client, base, token, http.MethodPost, "/api/v1/terms/"+termID+"/activate", nil); err != nil {
		log.Fatalf("failed to activate term: %v", err)
	}
	fmt.Printf("term %s created and activated\n", termID)

	for _, room := range fix.Rooms {
		id, err := createAndID(client, base, token, "/api/v1/rooms", room)
		if err != nil {
			log.Fatalf("failed to create room %v: %v", room["code"], err)
		}
		fmt.Printf("room %v -> %s\n", room["code"], id)
	}

	subjectIDs := make(map[string]string)
	for _, subject := range fix.Subjects {
		id, err := createAndID(client, base, token, "/api/v1/subjects", subject)
		if err != nil {
			log.Fatalf("failed to create subject %v: %v", subject["code"], err)
		}
		subjectIDs[fmt.Sprint(subject["code"])] = id
		fmt.Printf("subject %v -> %s\n", subject["code"], id)
	}

	for _, section := range fix.Sections {
		curriculum, _ := section["curriculum"].([]interface{})
		delete(section, "curriculum")
		sectionID, err := createAndID(client, base, token, "/api/v1/sections", section)
		if err != nil {
			log.Fatalf("failed to create section %v: %v", section["code"], err)
		}
		for _, code := range curriculum {
			subjectID, ok := subjectIDs[fmt.Sprint(code)]
			if !ok {
				log.Fatalf("section %v references unknown subject %v", section["code"], code)
			}
			payload := map[string]interface{}{"subjectId": subjectID, "termId": termID}
			if _, err := request(client, base, token, http.MethodPost, "/api/v1/sections/"+sectionID+"/subjects", payload); err != nil {
				log.Fatalf("failed to assign subject %v to section %v: %v", code, section["code"], err)
			}
		}
		fmt.Printf("section %v -> %s (%d subjects)\n", section["code"], sectionID, len(curriculum))
	}
}

func loadFixture(path string) (*fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fix fixture
	if err := json.Unmarshal(data, &fix); err != nil {
		return nil, err
	}
	if len(fix.Term) == 0 {
		return nil, fmt.Errorf("no term defined in %s", path)
	}
	return &fix, nil
}

func login(client *http.Client, base, email, password string) (string, error) {
	body, err := request(client, base, "", http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return "", err
	}
	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", err
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("login response carried no access token")
	}
	return payload.AccessToken, nil
}

func createAndID(client *http.Client, base, token, path string, payload interface{}) (string, error) {
	body, err := request(client, base, token, http.MethodPost, path, payload)
	if err != nil {
		return "", err
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", fmt.Errorf("response from %s carried no id", path)
	}
	return created.ID, nil
}

func request(client *http.Client, base, token, method, path string, payload interface{}) (json.RawMessage, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	url := strings.TrimRight(base, "/") + path
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%s %s returned %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Data == nil {
		return raw, nil
	}
	return env.Data, nil
}
