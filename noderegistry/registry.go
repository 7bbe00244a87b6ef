package noderegistry

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/DataONEorg/d1-solr-extensions/config"
	"github.com/DataONEorg/d1-solr-extensions/constants"
	"github.com/DataONEorg/d1-solr-extensions/logging"
	"github.com/DataONEorg/d1-solr-extensions/sessions"
	"github.com/DataONEorg/d1-solr-extensions/utils"
)

var (
	refreshCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "administrator_registry_refresh_total",
			Help: "Count of administrator cache refreshes by outcome.",
		},
		[]string{"status"},
	)
)

// mnEntry keeps the registry listing order so "first matching node
// wins" is deterministic.
type mnEntry struct {
	nodeID   string
	subjects map[sessions.Subject]bool
}

// snapshot is an immutable view of the administrator sets. Refresh
// builds a complete replacement off to the side and publishes it with
// a single write, so readers never observe a partially rebuilt set.
type snapshot struct {
	cnAdministrators   map[sessions.Subject]bool
	mnAdministrators   map[sessions.Subject]bool
	mnNodes            []mnEntry
	restrictedSubjects map[sessions.Subject]bool
}

func emptySnapshot() *snapshot {
	return &snapshot{
		cnAdministrators:   make(map[sessions.Subject]bool),
		mnAdministrators:   make(map[sessions.Subject]bool),
		restrictedSubjects: make(map[sessions.Subject]bool),
	}
}

// AdministratorRegistry caches administrator classification derived
// from the node registry. The cache refreshes lazily on the request
// path when the configured interval has elapsed; a refresh failure
// keeps serving the previous snapshot.
type AdministratorRegistry struct {
	config_obj *config.Config
	lister     NodeLister
	clock      utils.Clock

	// Method restrictions are scanned for this operation.
	operation string

	interval time.Duration

	mu            sync.Mutex
	current       atomic.Value // *snapshot
	lastRefreshNS int64
}

func NewAdministratorRegistry(
	config_obj *config.Config,
	lister NodeLister,
	operation string) *AdministratorRegistry {

	self := &AdministratorRegistry{
		config_obj: config_obj,
		lister:     lister,
		clock:      utils.RealClock{},
		operation:  operation,
		interval: time.Duration(
			config_obj.Authorization.NodelistRefreshIntervalMs) *
			time.Millisecond,
	}
	self.current.Store(emptySnapshot())
	return self
}

// SetClock is for tests.
func (self *AdministratorRegistry) SetClock(clock utils.Clock) {
	self.clock = clock
}

// RefreshIfStale refreshes synchronously when the interval has
// elapsed, before the current request is decided. Concurrent callers
// may race; last writer wins and the work is merely redundant, not a
// correctness hazard.
func (self *AdministratorRegistry) RefreshIfStale(ctx context.Context) {
	now := self.clock.Now().UnixNano()
	last := atomic.LoadInt64(&self.lastRefreshNS)
	if time.Duration(now-last) <= self.interval {
		return
	}

	err := self.Refresh(ctx)
	if err != nil {
		// Stale but available: the previous snapshot stays in
		// effect. An unknown principal is still never defaulted
		// to administrator.
		logger := logging.GetLogger(
			self.config_obj, &logging.RegistryComponent)
		logger.Error("administrator cache refresh failed: %v", err)
	}
}

// Refresh rebuilds the administrator sets from the node registry and
// the static allow list, atomically replacing the current snapshot.
func (self *AdministratorRegistry) Refresh(ctx context.Context) error {
	self.mu.Lock()
	defer self.mu.Unlock()

	logger := logging.GetLogger(self.config_obj, &logging.RegistryComponent)

	next := emptySnapshot()

	// Static allow list first - these principals are CN
	// administrators regardless of the registry contents.
	for _, admin := range self.config_obj.Authorization.Administrators {
		logger.Debug("static administrator entry %s", admin)
		next.cnAdministrators[sessions.NewSubject(admin)] = true
	}

	nodes, err := self.lister.ListNodes(ctx)
	if err != nil {
		refreshCounter.WithLabelValues("error").Inc()
		return err
	}

	for _, node := range nodes {
		if node.State != NodeStateUp {
			continue
		}

		switch node.Type {
		case NodeTypeCN:
			for _, subject := range node.Subjects {
				logger.Debug("CN administrator entry %s from node %s",
					subject.Value, node.Identifier)
				next.cnAdministrators[subject] = true
			}
			self.collectRestrictedSubjects(logger, node, next)

		case NodeTypeMN:
			if len(node.Subjects) == 0 {
				continue
			}
			entry := mnEntry{
				nodeID:   node.Identifier,
				subjects: make(map[sessions.Subject]bool),
			}
			for _, subject := range node.Subjects {
				logger.Debug("MN administrator entry %s from node %s",
					subject.Value, node.Identifier)
				next.mnAdministrators[subject] = true
				entry.subjects[subject] = true
			}
			next.mnNodes = append(next.mnNodes, entry)
		}
	}

	self.current.Store(next)
	atomic.StoreInt64(&self.lastRefreshNS, self.clock.Now().UnixNano())
	refreshCounter.WithLabelValues("ok").Inc()
	return nil
}

// collectRestrictedSubjects scans the CN's CNCore service descriptor
// for a method restriction matching this registry's operation and
// unions its subject list.
func (self *AdministratorRegistry) collectRestrictedSubjects(
	logger *logging.LogContext, node *Node, next *snapshot) {
	for _, service := range node.Services {
		if !strings.EqualFold(service.Name, constants.CNCORE_SERVICE_NAME) {
			continue
		}
		for _, restriction := range service.Restrictions {
			if !strings.EqualFold(restriction.MethodName, self.operation) {
				continue
			}
			for _, subject := range restriction.Subjects {
				logger.Debug("restricted %s subject %s from node %s",
					self.operation, subject.Value, node.Identifier)
				next.restrictedSubjects[subject] = true
			}
		}
	}
}

func (self *AdministratorRegistry) snapshot() *snapshot {
	return self.current.Load().(*snapshot)
}

func (self *AdministratorRegistry) IsCNAdministrator(
	subject sessions.Subject) bool {
	return self.snapshot().cnAdministrators[subject]
}

// IsMNAdministrator reports whether the subject administers a member
// node and if so which one. When the subject appears on several
// nodes, the first node in registry listing order wins.
func (self *AdministratorRegistry) IsMNAdministrator(
	subject sessions.Subject) (string, bool) {
	snap := self.snapshot()
	if !snap.mnAdministrators[subject] {
		return "", false
	}
	for _, entry := range snap.mnNodes {
		if entry.subjects[subject] {
			return entry.nodeID, true
		}
	}
	return "", false
}

func (self *AdministratorRegistry) HasRestrictedSubjects() bool {
	return len(self.snapshot().restrictedSubjects) > 0
}

func (self *AdministratorRegistry) IsRestrictedOperationSubject(
	subject sessions.Subject) bool {
	return self.snapshot().restrictedSubjects[subject]
}
