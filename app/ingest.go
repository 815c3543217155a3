package app

import (
	"bufio"
	"os"
	"time"
)

const reopenBackoff = time.Second

// RunPipeReader continuously reads the named pipe at path and appends one
// record per line. When the writer closes the pipe the reader reopens it;
// open failures retry after a fixed backoff. The loop runs for the
// process lifetime and holds the Service lock only per append; a silent
// producer simply leaves it blocked on the read.
//
// onAppend is invoked after each successful append so the consumer can
// follow the newest record; it may be nil.
func RunPipeReader(path string, svc *Service, onAppend func()) {
	for {
		f, err := os.Open(path)
		if err != nil {
			time.Sleep(reopenBackoff)
			continue
		}

		// Oversized lines are truncated by AppendStreamLine, not here:
		// tripping the scanner's limit would drop the rest of the stream.
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if svc.AppendStreamLine(scanner.Text()) && onAppend != nil {
				onAppend()
			}
		}
		// EOF means the writer closed the pipe; reopen and keep reading.
		f.Close()
	}
}
