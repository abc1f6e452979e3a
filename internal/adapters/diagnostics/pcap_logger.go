package diagnostics

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/lcalzada-xor/softapd/internal/core/ports"
)

// PcapLogger implements ports.Diagnostics by capturing traffic on the
// AP interface into a pcap file while the AP runs. One capture per
// interface.
type PcapLogger struct {
	dir string

	mu       sync.Mutex
	captures map[string]*capture
}

type capture struct {
	handle *pcapgo.EthernetHandle
	file   *os.File
	done   chan struct{}
}

func NewPcapLogger(dir string) *PcapLogger {
	return &PcapLogger{dir: dir, captures: make(map[string]*capture)}
}

// StartLogging opens the interface and begins writing packets to
// <dir>/<iface>-<timestamp>.pcap.
func (p *PcapLogger) StartLogging(iface string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.captures[iface]; ok {
		return nil
	}
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return fmt.Errorf("diagnostics dir: %w", err)
	}

	handle, err := pcapgo.NewEthernetHandle(iface)
	if err != nil {
		return fmt.Errorf("open %s: %w", iface, err)
	}

	name := fmt.Sprintf("%s-%s.pcap", iface, time.Now().Format("20060102-150405"))
	file, err := os.Create(filepath.Join(p.dir, name))
	if err != nil {
		handle.Close()
		return fmt.Errorf("create pcap file: %w", err)
	}

	w := pcapgo.NewWriter(file)
	if err := w.WriteFileHeader(65536, layers.LinkTypeEthernet); err != nil {
		handle.Close()
		file.Close()
		return fmt.Errorf("write pcap header: %w", err)
	}

	c := &capture{handle: handle, file: file, done: make(chan struct{})}
	p.captures[iface] = c
	go p.loop(iface, c, w)
	log.Printf("[DIAG] capturing %s to %s", iface, name)
	return nil
}

// StopLogging ends the capture for iface, if one is running.
func (p *PcapLogger) StopLogging(iface string) {
	p.mu.Lock()
	c, ok := p.captures[iface]
	if ok {
		delete(p.captures, iface)
	}
	p.mu.Unlock()
	if !ok {
		return
	}
	c.handle.Close()
	<-c.done
	c.file.Close()
	log.Printf("[DIAG] capture on %s stopped", iface)
}

// Close stops every running capture.
func (p *PcapLogger) Close() {
	p.mu.Lock()
	ifaces := make([]string, 0, len(p.captures))
	for iface := range p.captures {
		ifaces = append(ifaces, iface)
	}
	p.mu.Unlock()
	for _, iface := range ifaces {
		p.StopLogging(iface)
	}
}

func (p *PcapLogger) loop(iface string, c *capture, w *pcapgo.Writer) {
	defer close(c.done)
	src := gopacket.NewPacketSource(c.handle, layers.LinkTypeEthernet)
	for packet := range src.Packets() {
		ci := packet.Metadata().CaptureInfo
		if err := w.WritePacket(ci, packet.Data()); err != nil {
			log.Printf("[DIAG] write on %s failed: %v", iface, err)
			return
		}
	}
}

// Ensure interface compliance
var _ ports.Diagnostics = (*PcapLogger)(nil)
