package drivers

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	"eisview/config"
	"eisview/models"
	"eisview/utils"
)

const (
	LOG_NAME           = "RAWLOG"
	LOG_EXT            = ".jsonl"
	FLUSH_EVERY_N_LINE = 100
	// maxLineLength bounds one notification line from the gateway.
	maxLineLength = 4096
)

// ESP32 dev boards and the usual USB serial bridges
var preferredVIDs = map[string]bool{
	"303A": true, // Espressif native USB
	"10C4": true, // CP210x
	"1A86": true, // CH340
	"0403": true, // FTDI
}

// Serial reads notifications relayed by a BLE gateway board over USB serial, one JSON payload per line.
type Serial struct {
	*config.SerialConfig
	ingester Ingester
	port     serial.Port
	portName string
}

func NewSerial(serialConfig *config.SerialConfig, ingester Ingester) *Serial {
	return &Serial{
		SerialConfig: serialConfig,
		ingester:     ingester,
	}
}

func (s *Serial) Name() string {
	return s.portName
}

func (s *Serial) Init() error {
	port, name, err := openPort(s.Port, s.BaudRate)
	if err != nil {
		return err
	}
	s.port = port
	s.portName = name
	return nil
}

func (s *Serial) Run(ctx context.Context) error {
	if s.port == nil {
		return &TransportError{"read", ErrNotConnected}
	}
	port := s.port
	defer func() {
		if err := port.Close(); err != nil {
			log.Printf("close serial: %v", err)
		}
		s.port = nil
	}()

	var logWriter *bufio.Writer
	if s.RawLog {
		if err := os.MkdirAll(s.RawDir, 0o755); err != nil {
			return fmt.Errorf("create raw log dir: %w", err)
		}
		filePath := utils.NextAvailableFilename(s.RawDir, LOG_NAME, LOG_EXT)
		file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("open raw log: %w", err)
		}
		defer func() { _ = file.Close() }()

		logWriter = bufio.NewWriterSize(file, 1<<16)
		defer func() { _ = logWriter.Flush() }()
		log.Printf("logging raw payloads to %s", filePath)
	}

	// closing the port unblocks the read below
	stop := context.AfterFunc(ctx, func() { _ = port.Close() })
	defer stop()

	lines, err := processLines(port, s.ingester, logWriter)
	log.Printf("serial %s closed after %s lines", s.portName, humanize.Comma(int64(lines)))
	if ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return &TransportError{"read", err}
	}
	return nil
}

// processLines feeds each non-empty line to the ingester in order. Bad payloads, including lines longer than
// maxLineLength, are dropped and don't stop the loop. It returns when the reader is exhausted or fails.
func processLines(reader io.Reader, ingester Ingester, logWriter *bufio.Writer) (int, error) {
	lines := 0

	err := utils.ReadLines(reader, maxLineLength, func(line []byte) {
		if len(bytes.TrimSpace(line)) == 0 {
			return
		}
		lines++

		if logWriter != nil {
			if _, err := logWriter.Write(line); err != nil {
				log.Printf("raw write: %v", err)
			} else {
				_ = logWriter.WriteByte('\n')
				if lines%FLUSH_EVERY_N_LINE == 0 {
					_ = logWriter.Flush()
				}
			}
		}

		// the session logs and counts decode failures itself
		_ = ingester.Ingest(line)
	}, func(head []byte) {
		lines++
		drop(ingester, models.NewDecodeError(head, fmt.Errorf("%w: %w", models.ErrMalformedPayload, utils.ErrLineTooLong)))
	})
	return lines, err
}

func drop(ingester Ingester, err error) {
	if dropper, ok := ingester.(Dropper); ok {
		dropper.Drop(err)
		return
	}
	log.Warn().Err(err).Msg("dropped payload")
}

func openPort(port string, baud int) (serial.Port, string, error) {
	// auto-select a gateway-ish port if requested
	if port == "auto" {
		name, err := autoSelectPort()
		if err != nil {
			return nil, "", &TransportError{"auto-select", err}
		}
		port = name
	}
	mode := &serial.Mode{BaudRate: baud}
	serialPort, err := serial.Open(port, mode)
	if err != nil {
		return nil, "", &TransportError{"open " + port, err}
	}
	log.Printf("connected to %s @ %d", port, baud)

	return serialPort, port, nil
}

func autoSelectPort() (string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return "", fmt.Errorf("enumerate ports: %w", err)
	}
	// Look for the first matching gateway port
	for _, p := range ports {
		if p.IsUSB && preferredVIDs[strings.ToUpper(p.VID)] {
			return p.Name, nil
		}
	}
	return "", fmt.Errorf("no gateway serial ports found")
}
