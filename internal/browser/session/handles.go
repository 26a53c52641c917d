package session

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/runtime"
	"go.uber.org/zap"
)

// handles tracks the remote resources a session creates in the page: one
// isolated world per loaded document, and one object group per traversal.
//
// Every MainFrame call opens a new group. Objects resolved through frames of
// that traversal (documents, shadow roots, query results) join it, and the
// previous traversal's group is released, so the page holds at most one
// traversal's worth of handles at a time.
type handles struct {
	worlds map[cdp.FrameID]isolatedWorld
	gen    uint64
	group  string
}

type isolatedWorld struct {
	loader cdp.LoaderID
	id     runtime.ExecutionContextID
}

// cachedWorld returns the world created for the frame's current document.
func (s *Session) cachedWorld(frame cdp.FrameID, loader cdp.LoaderID) (runtime.ExecutionContextID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.handles.worlds[frame]
	if !ok || w.loader != loader {
		return 0, false
	}
	return w.id, true
}

// storeWorld records a world, replacing any world of an earlier document in
// the same frame.
func (s *Session) storeWorld(frame cdp.FrameID, loader cdp.LoaderID, id runtime.ExecutionContextID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handles.worlds == nil {
		s.handles.worlds = make(map[cdp.FrameID]isolatedWorld)
	}
	s.handles.worlds[frame] = isolatedWorld{loader: loader, id: id}
}

// forgetWorld drops id if it is still the cached world for frame.
func (s *Session) forgetWorld(frame cdp.FrameID, id runtime.ExecutionContextID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.handles.worlds[frame]; ok && w.id == id {
		delete(s.handles.worlds, frame)
	}
}

// nextGroup opens a new object group and returns it with the group it
// replaces, which is empty on the first call.
func (s *Session) nextGroup() (current, previous string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous = s.handles.group
	s.handles.gen++
	s.handles.group = fmt.Sprintf("%s-%s-%d", isolatedWorldName, s.id, s.handles.gen)
	return s.handles.group, previous
}

func (s *Session) releaseGroup(ctx context.Context, group string) {
	if group == "" {
		return
	}
	err := s.do(Detach(ctx), func(ctx context.Context) error {
		return runtime.ReleaseObjectGroup(group).Do(ctx)
	})
	if err != nil {
		s.logger.Debug("Could not release object group.", zap.String("group", group), zap.Error(err))
	}
}
