package domain

// ServerSyncStatus is the replication posture reported by the server.
type ServerSyncStatus struct {
	Started              bool   `json:"started"`
	Registered           bool   `json:"registered"`
	RegistrationServer   bool   `json:"registrationServer"`
	InitialLoaded        bool   `json:"initialLoaded"`
	ReverseInitialLoaded bool   `json:"reverseInitialLoaded"`
	SyncEnabled          bool   `json:"syncEnabled"`
	BatchToSendCount     int    `json:"batchToSendCount"`
	BatchInErrorCount    int    `json:"batchInErrorCount"`
	HeartbeatInterval    int    `json:"heartbeatInterval,omitempty"`
	LastHeartbeat        string `json:"lastHeartbeat,omitempty"`
	NodeID               string `json:"nodeId,omitempty"`
	NodeGroupID          string `json:"nodeGroupId,omitempty"`
	ExternalID           string `json:"externalId,omitempty"`
	DeploymentType       string `json:"deploymentType,omitempty"`
	SymmetricVersion     string `json:"symmetricVersion,omitempty"`
	DatabaseType         string `json:"databaseType,omitempty"`
	DatabaseVersion      string `json:"databaseVersion,omitempty"`
	SyncURL              string `json:"syncUrl,omitempty"`
	Message              string `json:"message,omitempty"`
}

// Ready reports whether the server side is running and has loaded its data.
func (s ServerSyncStatus) Ready() bool {
	return s.Started && s.SyncEnabled && s.Registered && s.InitialLoaded
}

// SyncInputs are the observations the sync indicator is derived from.
type SyncInputs struct {
	ClientPending  int
	ClientHasError bool
	PollerError    bool
	Server         *ServerSyncStatus
	IsOnline       bool
}

// SyncState is the derived synchronisation summary.
type SyncState struct {
	PendingTotal  int  `json:"pendingTotal"`
	ClientPending int  `json:"clientPending"`
	ServerPending int  `json:"serverPending"`
	ServerReady   bool `json:"serverReady"`
	HasError      bool `json:"hasError"`
	IsOnline      bool `json:"isOnline"`
	Synced        bool `json:"synced"`
}

// DeriveSyncState computes the sync summary. A missing server status counts
// as ready with nothing pending.
func DeriveSyncState(in SyncInputs) SyncState {
	st := SyncState{
		ClientPending: in.ClientPending,
		ServerReady:   true,
		HasError:      in.ClientHasError || in.PollerError,
		IsOnline:      in.IsOnline,
	}
	if in.Server != nil {
		st.ServerPending = in.Server.BatchToSendCount
		st.ServerReady = in.Server.Ready()
		if in.Server.BatchInErrorCount > 0 {
			st.HasError = true
		}
	}
	st.PendingTotal = st.ClientPending + st.ServerPending
	st.Synced = st.IsOnline && st.ServerReady && st.PendingTotal == 0 && !st.HasError
	return st
}

// Indicator is the displayed sync status.
type Indicator string

// Indicators in display priority order.
const (
	IndicatorOffline Indicator = "OFFLINE"
	IndicatorError   Indicator = "ERROR"
	IndicatorSyncing Indicator = "SYNCING"
	IndicatorSynced  Indicator = "SYNCED"
)

// Indicator returns the highest-priority status that applies.
func (s SyncState) Indicator() Indicator {
	switch {
	case !s.IsOnline:
		return IndicatorOffline
	case s.HasError:
		return IndicatorError
	case s.PendingTotal > 0 || !s.Synced:
		return IndicatorSyncing
	default:
		return IndicatorSynced
	}
}

// Collection is a server collection watched for changes.
type Collection string

// Watched collections.
const (
	CollectionProducts   Collection = "products"
	CollectionSuppliers  Collection = "suppliers"
	CollectionCategories Collection = "categories"
)

// Watermark is the last-modified marker the server reports for a collection.
type Watermark struct {
	LastModified int64 `json:"lastModified"`
}
