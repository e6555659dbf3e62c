// tools/imagestat decodes a fixed-offset memory-map/PCB-dump blob captured
// from a QEMU monitor physical-memory dump of a crashed kernel, for
// postmortem inspection.
package main

import (
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
)

const (
	memmapOffset = 0x1000
	pcbDumpOffset = 0x2000

	maxProcesses = 1024
)

// memMapEntry mirrors the firmware memory map's packed {pa, size, type}
// wire record.
type memMapEntry struct {
	PA   uint64
	Size uint64
	Type uint32
}

// pcbRecord mirrors the fixed-size PCB snapshot a crash dump records per
// process slot: {pid, ppid, state, wait_reason}.
type pcbRecord struct {
	PID        uint32
	PPID       uint32
	State      uint32
	WaitReason int32
}

func exit(err error) {
	fmt.Fprintf(os.Stderr, "[imagestat] error: %s\n", err.Error())
	os.Exit(1)
}

func readMemoryMap(f *os.File) ([]memMapEntry, error) {
	if _, err := f.Seek(memmapOffset, io.SeekStart); err != nil {
		return nil, err
	}

	var count uint32
	if err := binary.Read(f, binary.LittleEndian, &count); err != nil {
		return nil, err
	}

	entries := make([]memMapEntry, count)
	for i := range entries {
		if err := binary.Read(f, binary.LittleEndian, &entries[i]); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
	}

	return entries, nil
}

func readPCBDump(f *os.File) ([]pcbRecord, error) {
	if _, err := f.Seek(pcbDumpOffset, io.SeekStart); err != nil {
		return nil, err
	}

	var records []pcbRecord
	for i := 0; i < maxProcesses; i++ {
		var rec pcbRecord
		if err := binary.Read(f, binary.LittleEndian, &rec); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
		if rec.State == 0 {
			continue // unused slot
		}
		records = append(records, rec)
	}

	return records, nil
}

func stateName(s uint32) string {
	switch s {
	case 1:
		return "Ready"
	case 2:
		return "Running"
	case 3:
		return "Sleeping"
	default:
		return "Unused"
	}
}

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		exit(errors.New("usage: imagestat <dump-file>"))
	}

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		exit(err)
	}
	defer f.Close()

	entries, err := readMemoryMap(f)
	if err != nil {
		exit(fmt.Errorf("memory map: %w", err))
	}

	fmt.Printf("memory map: %d entries\n", len(entries))
	for i, e := range entries {
		usable := "reserved"
		if e.Type == 1 {
			usable = "usable"
		}
		fmt.Printf("  [%d] pa=0x%x size=0x%x (%s)\n", i, e.PA, e.Size, usable)
	}

	records, err := readPCBDump(f)
	if err != nil {
		exit(fmt.Errorf("pcb dump: %w", err))
	}

	fmt.Printf("processes: %d live\n", len(records))
	for _, r := range records {
		fmt.Printf("  pid=%d ppid=%d state=%s wait_reason=%d\n", r.PID, r.PPID, stateName(r.State), r.WaitReason)
	}
}
