// FilePath: cmd/livetail/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tm "github.com/buger/goterm"
	"github.com/itsatony/telemhub/internal/live"
	"github.com/itsatony/telemhub/internal/models"
	"github.com/itsatony/telemhub/internal/resilience"
	nuts "github.com/vaudience/go-nuts"
)

// livetail follows the live channel from a terminal, reconnecting with
// exponential backoff when the hub drops the connection.
func main() {
	url := flag.String("url", "ws://localhost:8080/ws", "live channel URL")
	baseDelay := flag.Duration("base-delay", time.Second, "initial reconnect delay")
	maxDelay := flag.Duration("max-delay", 30*time.Second, "reconnect delay cap")
	maxAttempts := flag.Int("max-attempts", 10, "reconnect attempts before giving up")
	flag.Parse()

	nuts.InitVersion()

	policy := resilience.NewExponentialPolicy(*baseDelay, *maxDelay, *maxAttempts)
	client := live.NewClient(*url, policy, printEvent)
	client.OnStateChange(func(state resilience.State) {
		fmt.Println(tm.Color(fmt.Sprintf("-- %s --", state), tm.YELLOW))
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		cancel()
	}()

	if err := client.Run(ctx); err != nil {
		nuts.L.Errorf("[LiveTail] %v", err)
		os.Exit(1)
	}
}

func printEvent(event models.LiveEvent) {
	switch event.Type {
	case models.EventSensorUpdate:
		if event.Data == nil {
			return
		}
		line := fmt.Sprintf("%s  %s", event.Data.Timestamp.Format(time.RFC3339), event.Data.DeviceID)
		if event.Data.TemperatureC != nil {
			line += fmt.Sprintf("  %.1f C", *event.Data.TemperatureC)
		}
		if event.Data.HumidityPct != nil {
			line += fmt.Sprintf("  %.1f %%", *event.Data.HumidityPct)
		}
		fmt.Println(tm.Color(line, tm.GREEN))
	case models.EventConnected:
		fmt.Println(tm.Color("connected to live channel", tm.CYAN))
	}
}
