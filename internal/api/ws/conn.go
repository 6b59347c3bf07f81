package ws

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Galev01/LimiQuantix-sub002/internal/domain/workspace"
	"github.com/Galev01/LimiQuantix-sub002/internal/infrastructure/logging"
	"github.com/Galev01/LimiQuantix-sub002/internal/infrastructure/monitoring"
	"github.com/Galev01/LimiQuantix-sub002/internal/shared/types"
	"github.com/Galev01/LimiQuantix-sub002/internal/shared/utils"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// Time allowed to write a frame to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second

	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	outQueueCapacity = 64
)

var errPeerClosed = errors.New("peer closed the connection")

// conn is one connected tab: a window with a mounted controller. Frames are
// handled one at a time by the read pump; the write pump is the only writer.
type conn struct {
	ws        *websocket.Conn
	workspace *workspace.Workspace
	window    *workspace.Window
	ctrl      *workspace.Controller
	logger    *logging.Logger
	metrics   *monitoring.Metrics

	out    chan OutFrame
	dirty  chan struct{} // Latest state is pending; capacity 1
	thumbs chan struct{} // pendingThumbs is non-empty; capacity 1

	thumbMu       sync.Mutex
	pendingThumbs map[string]struct{} // Protected by thumbMu; session ids
}

func newConn(ws *websocket.Conn, w *workspace.Workspace, ctrl *workspace.Controller, logger *logging.Logger) *conn {
	return &conn{
		ws:        ws,
		workspace: w,
		window:    workspace.NewWindow(),
		ctrl:      ctrl,
		logger:    logger,
		out:       make(chan OutFrame, outQueueCapacity),
		dirty:     make(chan struct{}, 1),
		thumbs:    make(chan struct{}, 1),

		pendingThumbs: make(map[string]struct{}),
	}
}

func (c *conn) serve(ctx context.Context) error {
	c.ctrl.Mount(c.window)
	unsubscribe := c.workspace.Registry.Subscribe(c.observe)
	defer func() {
		unsubscribe()
		c.ctrl.Unmount()
	}()

	// Initial state goes out before the pumps start so thumbnails follow it
	state := c.workspace.Registry.State()
	if err := c.write(stateFrame(state)); err != nil {
		return err
	}
	for _, s := range state.Sessions {
		if s.Thumbnail != nil {
			c.markThumbnail(s.ID)
		}
	}

	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error { return c.readPump(gctx) })
	grp.Go(func() error { return c.writePump(gctx) })
	grp.Go(func() error {
		<-gctx.Done()
		c.ws.Close()
		return nil
	})

	err := grp.Wait()
	switch {
	case err == nil, errors.Is(err, errPeerClosed), ctx.Err() != nil:
		return nil
	default:
		return err
	}
}

func (c *conn) observe(ev types.ChangeEvent) {
	if ev.Type == types.ChangeThumbnail {
		c.markThumbnail(ev.SessionID)
		return
	}
	c.markDirty()
}

func (c *conn) markThumbnail(sessionID string) {
	c.thumbMu.Lock()
	c.pendingThumbs[sessionID] = struct{}{}
	c.thumbMu.Unlock()

	select {
	case c.thumbs <- struct{}{}:
	default:
	}
}

func (c *conn) takeThumbnails() []string {
	c.thumbMu.Lock()
	defer c.thumbMu.Unlock()

	ids := make([]string, 0, len(c.pendingThumbs))
	for id := range c.pendingThumbs {
		ids = append(ids, id)
	}
	clear(c.pendingThumbs)
	return ids
}

func (c *conn) markDirty() {
	select {
	case c.dirty <- struct{}{}:
	default:
	}
}

func (c *conn) send(ctx context.Context, f OutFrame) {
	select {
	case c.out <- f:
	case <-ctx.Done():
	}
}

func (c *conn) readPump(ctx context.Context) error {
	c.ws.SetReadLimit(utils.MaxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return errPeerClosed
			}
			return fmt.Errorf("read frame: %w", err)
		}

		f, err := decodeFrame(data)
		if err != nil {
			c.send(ctx, OutFrame{Type: TypeError, Message: "malformed frame"})
			continue
		}
		c.record("in", frameLabel(f.Type))
		c.handle(ctx, f)
	}
}

func (c *conn) writePump(ctx context.Context) error {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "closing"),
				time.Now().Add(writeWait))
			return nil
		case <-c.dirty:
			if err := c.write(stateFrame(c.workspace.Registry.State())); err != nil {
				return err
			}
		case <-c.thumbs:
			// A session must reach the tab before its thumbnail
			select {
			case <-c.dirty:
				if err := c.write(stateFrame(c.workspace.Registry.State())); err != nil {
					return err
				}
			default:
			}
			if err := c.writeThumbnails(); err != nil {
				return err
			}
		case f := <-c.out:
			if err := c.write(f); err != nil {
				return err
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return fmt.Errorf("write ping: %w", err)
			}
		}
	}
}

func (c *conn) writeThumbnails() error {
	for _, id := range c.takeThumbnails() {
		s, ok := c.workspace.Registry.Get(id)
		if !ok || s.Thumbnail == nil {
			continue
		}
		err := c.write(OutFrame{Type: TypeThumbnail, Thumbnail: &ThumbnailFrame{
			SessionID: s.ID,
			VMID:      s.VMID,
			Thumbnail: *s.Thumbnail,
		}})
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *conn) write(f OutFrame) error {
	data, err := encodeFrame(f)
	if err != nil {
		c.logger.Error("failed to encode frame", zap.String("type", f.Type), zap.Error(err))
		return nil
	}
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	c.record("out", f.Type)
	return nil
}

func (c *conn) handle(ctx context.Context, f InFrame) {
	switch f.Type {
	case TypeRender:
		loc := workspace.NewLinkLocation(f.VMID, f.VMName, func() {
			c.send(ctx, OutFrame{Type: TypeNavigate, Clear: []string{workspace.ParamVMID, workspace.ParamVMName}})
		})
		if _, err := c.ctrl.Render(loc); err != nil {
			c.send(ctx, errorFrame(err))
		}

	case TypeKey:
		handled := c.window.DispatchKey(keyEvent(f))
		c.send(ctx, OutFrame{Type: TypeKey, Handled: &handled})

	case TypeMessage:
		c.window.DispatchMessage(workspace.MessageEvent{Data: messageData(f.Data), Origin: f.Origin})

	case TypeAddConsole:
		c.ctrl.AddConsole()
		c.sendPicker(ctx)

	case TypePickerQuery:
		if err := c.ctrl.SetPickerQuery(f.Query); err != nil {
			c.send(ctx, errorFrame(err))
		}
		c.sendPicker(ctx)

	case TypePickerSelect:
		if _, err := c.ctrl.SelectVM(f.VMID, f.VMName); err != nil {
			c.send(ctx, errorFrame(err))
		}
		c.sendPicker(ctx)

	case TypePickerClose:
		c.ctrl.ClosePicker()
		c.sendPicker(ctx)

	case TypeCloseConsole:
		if !c.workspace.Registry.CloseConsole(f.SessionID) {
			c.send(ctx, OutFrame{Type: TypeError, Message: "session not found: " + f.SessionID})
		}

	case TypeActivate:
		if !c.workspace.Registry.SetActiveSession(f.SessionID) {
			c.send(ctx, OutFrame{Type: TypeError, Message: "session not found: " + f.SessionID})
		}

	case TypeSidebar:
		if f.Collapsed == nil {
			c.send(ctx, OutFrame{Type: TypeError, Message: "collapsed is required"})
			return
		}
		c.workspace.Registry.SetSidebarCollapsed(*f.Collapsed)

	case TypePing:
		c.send(ctx, OutFrame{Type: TypePong})

	default:
		c.send(ctx, OutFrame{Type: TypeError, Message: "unknown frame type: " + f.Type})
	}
}

func (c *conn) sendPicker(ctx context.Context) {
	state := c.ctrl.PickerState()
	c.send(ctx, OutFrame{Type: TypePicker, Picker: &PickerFrame{
		Open: state.Open,
		View: c.ctrl.PickerView(),
	}})
}

func (c *conn) record(direction, frameType string) {
	if c.metrics != nil {
		c.metrics.RecordWSMessage(direction, frameType)
	}
}
