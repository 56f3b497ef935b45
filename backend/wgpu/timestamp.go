// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/texdecode"
)

// timestampCount is the number of queries per dispatch: pass begin and end.
const timestampCount = 2

// timestampBytes is the resolved size of timestampCount u64 ticks.
const timestampBytes = timestampCount * 8

// ErrTimestampOrder is returned when the end-of-pass timestamp precedes the
// beginning-of-pass timestamp.
var ErrTimestampOrder = errors.New("wgpu: end timestamp before begin timestamp")

// timestampQuery times compute passes on the device clock. The two
// timestamps are resolved into resolve and copied to staging for mapping.
type timestampQuery struct {
	set     hal.QuerySet
	resolve hal.Buffer
	staging hal.Buffer
}

// newTimestampQuery creates the query set and its buffers. It returns
// hal.ErrTimestampsNotSupported unwrapped when the backend has no
// timestamp queries.
func newTimestampQuery(device hal.Device) (*timestampQuery, error) {
	set, err := device.CreateQuerySet(&hal.QuerySetDescriptor{
		Label: "dispatch_timestamps",
		Type:  hal.QueryTypeTimestamp,
		Count: timestampCount,
	})
	if err != nil {
		return nil, err
	}
	q := &timestampQuery{set: set}

	q.resolve, err = device.CreateBuffer(&hal.BufferDescriptor{
		Label: "timestamp_resolve",
		Size:  timestampBytes,
		Usage: gputypes.BufferUsageQueryResolve | gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		q.destroy(device)
		return nil, fmt.Errorf("create timestamp resolve buffer: %w", err)
	}
	q.staging, err = device.CreateBuffer(&hal.BufferDescriptor{
		Label: "timestamp_staging",
		Size:  timestampBytes,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		q.destroy(device)
		return nil, fmt.Errorf("create timestamp staging buffer: %w", err)
	}
	return q, nil
}

// passWrites returns the timestamp writes for a compute pass descriptor.
func (q *timestampQuery) passWrites() *hal.ComputePassTimestampWrites {
	begin, end := uint32(0), uint32(1)
	return &hal.ComputePassTimestampWrites{
		QuerySet:                  q.set,
		BeginningOfPassWriteIndex: &begin,
		EndOfPassWriteIndex:       &end,
	}
}

// encodeResolve records the resolve and the copy to the staging buffer.
// It must follow the end of the timed pass.
func (q *timestampQuery) encodeResolve(encoder hal.CommandEncoder) {
	encoder.ResolveQuerySet(q.set, 0, timestampCount, q.resolve, 0)
	encoder.CopyBufferToBuffer(q.resolve, q.staging, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: timestampBytes},
	})
}

// elapsed maps the staging buffer and converts the tick difference to a
// duration using the queue's timestamp period.
func (q *timestampQuery) elapsed(device hal.Device, queue hal.Queue) (time.Duration, error) {
	ticks := make([]byte, timestampBytes)
	if err := mapRead(device, q.staging, ticks); err != nil {
		return 0, fmt.Errorf("read timestamps: %w", err)
	}
	begin := binary.LittleEndian.Uint64(ticks[0:])
	end := binary.LittleEndian.Uint64(ticks[8:])
	if end < begin {
		return 0, fmt.Errorf("%w: begin %d, end %d", ErrTimestampOrder, begin, end)
	}
	ns := float64(end-begin) * float64(queue.GetTimestampPeriod())
	return time.Duration(ns), nil
}

func (q *timestampQuery) destroy(device hal.Device) {
	if q.staging != nil {
		device.DestroyBuffer(q.staging)
	}
	if q.resolve != nil {
		device.DestroyBuffer(q.resolve)
	}
	if q.set != nil {
		device.DestroyQuerySet(q.set)
	}
}

// mapRead copies len(dst) bytes from the start of a map-readable buffer.
func mapRead(device hal.Device, buf hal.Buffer, dst []byte) error {
	m, err := device.MapBuffer(buf, 0, uint64(len(dst)))
	if err != nil {
		return fmt.Errorf("map buffer: %w", err)
	}
	copy(dst, unsafe.Slice((*byte)(m.Ptr), len(dst)))
	if err := device.UnmapBuffer(buf); err != nil {
		return fmt.Errorf("unmap buffer: %w", err)
	}
	return nil
}

// timestamps returns the device's query, creating it on first use. It
// returns nil without error when the backend has no timestamp queries;
// dispatches are then timed from submission to completion and a warning is
// logged once.
func (d *Device) timestamps(device hal.Device) (*timestampQuery, error) {
	if d.tsQuery != nil || d.tsUnsupported {
		return d.tsQuery, nil
	}
	q, err := newTimestampQuery(device)
	if errors.Is(err, hal.ErrTimestampsNotSupported) {
		d.tsUnsupported = true
		texdecode.Logger().Warn("wgpu: timestamp queries unsupported, timing dispatches on the host",
			"backend", d.name)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create timestamp query: %w", err)
	}
	d.tsQuery = q
	return q, nil
}
