package bcache

import (
	"context"
	"fmt"

	"github.com/viant/gokern/model/buf"
	"github.com/viant/gokern/service/disk"
)

// Mount registers a block device under the given device number.
func (s *Service) Mount(device int, dev disk.Device) error {
	if dev == nil {
		return fmt.Errorf("bcache: cannot mount nil device %d", device)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.devices[device]; ok {
		return fmt.Errorf("bcache: device %d already mounted", device)
	}
	s.devices[device] = dev
	return nil
}

// Unmount syncs dirty buffers, drops the device's cached blocks and
// removes the device from the registry. It fails while any of the
// device's buffers is still referenced.
func (s *Service) Unmount(ctx context.Context, device int) error {
	s.mu.Lock()
	if _, ok := s.devices[device]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("bcache: device %d not mounted", device)
	}
	for i := range s.bufs {
		if s.bufs[i].Device == device && s.bufs[i].Refcnt > 0 {
			s.mu.Unlock()
			return fmt.Errorf("bcache: device %d busy, block %d still referenced", device, s.bufs[i].Blockno)
		}
	}
	s.mu.Unlock()

	if err := s.Sync(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidate(device)
	delete(s.devices, device)
	return nil
}

// Invalidate drops the cached content of every unreferenced buffer of the
// given device. Referenced buffers are left alone.
func (s *Service) Invalidate(device int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidate(device)
}

// invalidate assumes the pool lock is held.
func (s *Service) invalidate(device int) {
	for i := range s.bufs {
		b := s.bufs[i]
		if b.Device == device && b.Refcnt == 0 && !b.Dirty {
			b.Device = buf.None
			b.Blockno = buf.None
			b.Valid = false
		}
	}
}

// device returns the registered device or an error when unmounted.
func (s *Service) device(number int) (disk.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dev, ok := s.devices[number]
	if !ok {
		return nil, fmt.Errorf("bcache: device %d not mounted", number)
	}
	return dev, nil
}
