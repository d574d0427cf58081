package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"cdr.dev/slog"
	"github.com/google/uuid"

	"whiteboard/internal/log"
)

// maxLineSize bounds a single message; element snapshots can be large.
const maxLineSize = 16 << 20

// Serve runs w over newline-delimited JSON until r is exhausted or ctx is
// done. Malformed messages get an error reply and do not stop the loop.
func Serve(ctx context.Context, w *Worker, r io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)
	enc := json.NewEncoder(out)

	log.Info(ctx, "route worker started")
	defer log.Info(ctx, "route worker stopped")

	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}

		var msg Message
		if err := json.Unmarshal(line, &msg); err != nil {
			log.Warn(ctx, "malformed worker message", slog.Error(err))
			if err := enc.Encode(Message{Type: TypeError, Error: fmt.Sprintf("decode message: %v", err)}); err != nil {
				return fmt.Errorf("write reply: %w", err)
			}
			continue
		}
		if msg.Type == TypeComputeRoute && msg.RequestID == "" {
			msg.RequestID = uuid.NewString()
		}

		reply, err := w.Handle(msg)
		if err != nil {
			log.Warn(ctx, "worker message failed", slog.F("type", msg.Type), slog.Error(err))
			reply = &Message{Type: TypeError, RequestID: msg.RequestID, Error: err.Error()}
		}
		if msg.Type == TypeUpdateElements {
			log.Debug(ctx, "snapshot updated", slog.F("elements", w.Elements()))
		}
		if reply == nil {
			continue
		}
		if err := enc.Encode(reply); err != nil {
			return fmt.Errorf("write reply: %w", err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read messages: %w", err)
	}
	return nil
}
