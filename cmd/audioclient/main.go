// Command audioclient replays a WAV file into a live practice recording over
// the WebSocket channel and prints what the service sends back.
package main

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// WAV header is 44 bytes for standard PCM files
const wavHeaderSize = 44

// 100ms chunks, sized from the file's byte rate
const chunkIntervalMs = 100

type liveMessage struct {
	Type        string `json:"type"`
	State       string `json:"state"`
	ElapsedSecs int    `json:"elapsedSecs"`
	Final       string `json:"final"`
	Interim     string `json:"interim"`
	Error       string `json:"error"`
	Minute      *struct {
		Minute         int      `json:"minute"`
		Score          int      `json:"score"`
		WordsPerMinute int      `json:"wordsPerMinute"`
		Issues         []string `json:"issues"`
		Label          string   `json:"label"`
	} `json:"minute"`
}

func main() {
	audioFile := flag.String("audio", "testdata/sample-16khz.wav", "Path to WAV file (16-bit PCM mono)")
	server := flag.String("server", "http://localhost:8080", "HTTP API base URL")
	question := flag.String("question", "Tell me about yourself.", "Question being answered")
	questionType := flag.String("type", "Behavioral", "Question type")
	analyse := flag.Bool("analyse", true, "Request a full analysis after streaming")
	flag.Parse()

	f, err := os.Open(*audioFile)
	if err != nil {
		log.Fatalf("Failed to open audio file: %v", err)
	}
	defer f.Close()

	header := make([]byte, wavHeaderSize)
	if _, err := io.ReadFull(f, header); err != nil {
		log.Fatalf("Failed to read WAV header: %v", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		log.Fatal("Not a valid WAV file")
	}

	audioFormat := binary.LittleEndian.Uint16(header[20:22])
	numChannels := binary.LittleEndian.Uint16(header[22:24])
	sampleRate := binary.LittleEndian.Uint32(header[24:28])
	byteRate := binary.LittleEndian.Uint32(header[28:32])
	bitsPerSample := binary.LittleEndian.Uint16(header[34:36])

	log.Printf("WAV file: format=%d channels=%d sampleRate=%d bitsPerSample=%d",
		audioFormat, numChannels, sampleRate, bitsPerSample)
	if audioFormat != 1 { // PCM
		log.Fatal("Only PCM format supported")
	}
	chunkSize := int(byteRate) * chunkIntervalMs / 1000
	if chunkSize <= 0 {
		log.Fatal("Invalid byte rate in WAV header")
	}

	id := startRecording(*server, *question, *questionType)
	log.Printf("Recording started: %s", id)

	conn, _, err := websocket.DefaultDialer.Dial(liveURL(*server, id), nil)
	if err != nil {
		log.Fatalf("Failed to open live channel: %v", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var m liveMessage
			if err := conn.ReadJSON(&m); err != nil {
				return
			}
			printMessage(m)
			if m.Type == "state" && m.State == "IDLE" {
				return
			}
		}
	}()

	chunk := make([]byte, chunkSize)
	var totalBytes int64
	var chunkNum int
	startTime := time.Now()

	for {
		n, err := f.Read(chunk)
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("Failed to read audio: %v", err)
		}

		chunkNum++
		totalBytes += int64(n)
		if err := conn.WriteMessage(websocket.BinaryMessage, chunk[:n]); err != nil {
			log.Fatalf("Failed to send frame: %v", err)
		}
		if chunkNum%50 == 0 {
			log.Printf("Sent chunk %d (%d bytes total)", chunkNum, totalBytes)
		}

		// Simulate real-time streaming
		time.Sleep(chunkIntervalMs * time.Millisecond)
	}
	log.Printf("Finished streaming: %d chunks, %d bytes in %v", chunkNum, totalBytes, time.Since(startTime))

	if err := conn.WriteJSON(map[string]string{"action": "stop"}); err != nil {
		log.Fatalf("Failed to stop recording: %v", err)
	}
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		log.Println("Timed out waiting for the recording to stop")
	}

	if *analyse {
		body := post(*server+"/v1/recordings/"+id+"/analyse", nil)
		var out bytes.Buffer
		_ = json.Indent(&out, body, "", "  ")
		fmt.Println(out.String())
	}
}

func startRecording(server, question, questionType string) string {
	body := post(server+"/v1/recordings", map[string]any{
		"question_text": question,
		"question_type": questionType,
		"permission":    true,
	})
	var resp struct {
		Snapshot struct {
			ID string `json:"id"`
		} `json:"snapshot"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || resp.Snapshot.ID == "" {
		log.Fatalf("Unexpected start response: %s", body)
	}
	return resp.Snapshot.ID
}

func post(u string, payload any) []byte {
	var rd io.Reader = http.NoBody
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			log.Fatalf("Failed to encode request: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	resp, err := http.Post(u, "application/json", rd)
	if err != nil {
		log.Fatalf("POST %s: %v", u, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		log.Fatalf("POST %s: %s: %s", u, resp.Status, strings.TrimSpace(string(body)))
	}
	return body
}

func liveURL(server, id string) string {
	u, err := url.Parse(server)
	if err != nil {
		log.Fatalf("Invalid server URL: %v", err)
	}
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/v1/recordings/" + id + "/live"
	return u.String()
}

func printMessage(m liveMessage) {
	switch m.Type {
	case "transcript":
		log.Printf("transcript: %s [%s]", m.Final, m.Interim)
	case "minute":
		if m.Minute != nil {
			log.Printf("minute %d: score=%d (%s) wpm=%d issues=%v",
				m.Minute.Minute, m.Minute.Score, m.Minute.Label, m.Minute.WordsPerMinute, m.Minute.Issues)
		}
	case "state":
		log.Printf("state: %s", m.State)
	case "error":
		log.Printf("error: %s", m.Error)
	}
}
