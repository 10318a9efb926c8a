package replay

import "sync"

// fakeSimulation is a minimal, in-memory Simulation used across tests.
type fakeSimulation struct {
	mu sync.Mutex

	crashedSwitches   []int
	recoveredSwitches []int
	severedLinks      []string
	repairedLinks     []string
	killedControllers []ControllerID
	rebootControllers []ControllerID
	migratedHosts     int

	connections map[string]*InterceptedConnection

	bufferedPackets map[DPFingerprint]bool
	droppedPackets  []DPFingerprint
	permitPackets   []DPFingerprint

	scheduler *GodScheduler

	pendingStateChanges map[PendingStateChange]bool
	gcdStateChanges     []PendingStateChange

	trace DataplaneTrace

	invariantViolations []string
	invariantErr        error

	cleanupCalled int
}

func newFakeSimulation() *fakeSimulation {
	return &fakeSimulation{
		connections:         make(map[string]*InterceptedConnection),
		bufferedPackets:     make(map[DPFingerprint]bool),
		scheduler:           NewGodScheduler(),
		pendingStateChanges: make(map[PendingStateChange]bool),
	}
}

func (s *fakeSimulation) Topology() Topology                               { return s }
func (s *fakeSimulation) ControllerManager() ControllerManager             { return s }
func (s *fakeSimulation) PatchPanel() PatchPanel                           { return s }
func (s *fakeSimulation) GodScheduler() *GodScheduler                      { return s.scheduler }
func (s *fakeSimulation) ControllerSyncCallback() ControllerSyncCallback   { return s }
func (s *fakeSimulation) DataplaneTrace() DataplaneTrace                   { return s.trace }
func (s *fakeSimulation) InvariantChecker() InvariantChecker               { return s }
func (s *fakeSimulation) Cleanup() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanupCalled++
	return nil
}

func (s *fakeSimulation) CrashSwitch(dpid int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.crashedSwitches = append(s.crashedSwitches, dpid)
	return nil
}

func (s *fakeSimulation) RecoverSwitch(dpid int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recoveredSwitches = append(s.recoveredSwitches, dpid)
	return nil
}

func (s *fakeSimulation) SeverLink(startDPID, startPortNo, endDPID, endPortNo int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.severedLinks = append(s.severedLinks, linkKey(startDPID, startPortNo, endDPID, endPortNo))
	return nil
}

func (s *fakeSimulation) RepairLink(startDPID, startPortNo, endDPID, endPortNo int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repairedLinks = append(s.repairedLinks, linkKey(startDPID, startPortNo, endDPID, endPortNo))
	return nil
}

func (s *fakeSimulation) MigrateHost(oldDPID, oldPortNo, newDPID, newPortNo int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.migratedHosts++
	return nil
}

func (s *fakeSimulation) KillController(id ControllerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.killedControllers = append(s.killedControllers, id)
	return nil
}

func (s *fakeSimulation) RebootController(id ControllerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rebootControllers = append(s.rebootControllers, id)
	return nil
}

func (s *fakeSimulation) GetConnection(dpid int, id ControllerID) (*InterceptedConnection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := controlChannelKey(dpid, id)
	conn, ok := s.connections[key]
	if !ok {
		conn = NewInterceptedConnection(dpid, id, nil)
		s.connections[key] = conn
	}
	return conn, nil
}

func (s *fakeSimulation) GetBufferedDPEvent(fp DPFingerprint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bufferedPackets[fp]
}

func (s *fakeSimulation) bufferPacket(fp DPFingerprint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bufferedPackets[fp] = true
}

func (s *fakeSimulation) DropDPEvent(fp DPFingerprint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bufferedPackets, fp)
	s.droppedPackets = append(s.droppedPackets, fp)
	return nil
}

func (s *fakeSimulation) PermitDPEvent(fp DPFingerprint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bufferedPackets, fp)
	s.permitPackets = append(s.permitPackets, fp)
	return nil
}

func (s *fakeSimulation) StateChangePending(p PendingStateChange) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingStateChanges[p]
}

func (s *fakeSimulation) markStateChangePending(p PendingStateChange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingStateChanges[p] = true
}

func (s *fakeSimulation) GCPendingStateChange(p PendingStateChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pendingStateChanges, p)
	s.gcdStateChanges = append(s.gcdStateChanges, p)
	return nil
}

func (s *fakeSimulation) CheckInvariants(name string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invariantViolations, s.invariantErr
}

type fakeDataplaneTrace struct {
	injected int
	err      error
}

func (t *fakeDataplaneTrace) InjectTraceEvent() error {
	t.injected++
	return t.err
}
