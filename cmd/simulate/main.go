// cmd/simulate posts a synthetic device heartbeat to a running API, for
// poking at a deployment without real hardware.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

func main() {
	api := os.Getenv("API_BASE")
	if api == "" {
		api = "http://localhost:8080"
	}

	reader := bufio.NewReader(os.Stdin)
	fmt.Print("Enter the door or radar core ID to send a heartbeat for: ")
	coreID, _ := reader.ReadString('\n')
	coreID = strings.TrimSpace(coreID)
	if coreID == "" {
		fmt.Println("No core ID given.")
		return
	}

	data, _ := json.Marshal(map[string]any{
		"resetReason":       "NONE",
		"doorMissedMsg":     0,
		"doorLowBatt":       false,
		"doorLastHeartbeat": 1000,
		"states":            [][3]float64{{0, 0, 0}},
	})
	body, _ := json.Marshal(map[string]string{
		"coreid": coreID,
		"data":   string(data),
	})

	resp, err := http.Post(api+"/api/heartbeat", "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Println("Error contacting API:", err)
		return
	}
	defer resp.Body.Close()

	reply, _ := io.ReadAll(resp.Body)
	fmt.Printf("%d %s\n", resp.StatusCode, strings.TrimSpace(string(reply)))
}
