package allocation

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/stockalloc/engine/internal/domain/allocation"
	"github.com/stockalloc/engine/internal/domain/shared"
)

// AllocationService orchestrates the allocation engine: it loads ledgers,
// serializes mutations per (item, location), runs the domain services inside
// a transaction and publishes the resulting events.
//
// Writes go through the TransactionScope so ledger rows, claims and audit
// entries commit atomically. Read paths (GetStock, History, Requirements)
// run unsynchronized against the latest committed state and may be briefly
// stale.
type AllocationService struct {
	stockRepo         allocation.LocationStockRepository
	itemRepo          allocation.ItemRepository
	auditRepo         allocation.AuditRepository
	txScope           TransactionScope
	requirementSource RequirementSource
	planner           *allocation.AllocationPlanner
	reallocator       *allocation.ReallocationService
	stockLocks        *keyedMutex
	eventPublisher    shared.EventPublisher
	cache             SnapshotCache
}

// NewAllocationService creates a new AllocationService
func NewAllocationService(
	stockRepo allocation.LocationStockRepository,
	itemRepo allocation.ItemRepository,
	auditRepo allocation.AuditRepository,
	txScope TransactionScope,
	requirementSource RequirementSource,
) *AllocationService {
	return &AllocationService{
		stockRepo:         stockRepo,
		itemRepo:          itemRepo,
		auditRepo:         auditRepo,
		txScope:           txScope,
		requirementSource: requirementSource,
		planner:           allocation.NewAllocationPlanner(),
		reallocator:       allocation.NewReallocationService(),
		stockLocks:        newKeyedMutex(),
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *AllocationService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetSnapshotCache sets the read-path snapshot cache
func (s *AllocationService) SetSnapshotCache(cache SnapshotCache) {
	s.cache = cache
}

// RegisterItem registers a new inventory item
func (s *AllocationService) RegisterItem(ctx context.Context, req RegisterItemRequest) (*ItemResponse, error) {
	exists, err := s.itemRepo.ExistsByItemNo(ctx, req.ItemNo)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.ErrAlreadyExists
	}

	item, err := allocation.NewInventoryItem(req.ItemNo, req.Description, req.Make, req.MaterialGroup)
	if err != nil {
		return nil, err
	}
	if err := s.itemRepo.Save(ctx, item); err != nil {
		return nil, err
	}

	resp := ToItemResponse(item)
	return &resp, nil
}

// GetItem returns one inventory item
func (s *AllocationService) GetItem(ctx context.Context, id uuid.UUID) (*ItemResponse, error) {
	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToItemResponse(item)
	return &resp, nil
}

// GetItemByNo returns one inventory item looked up by its item number
func (s *AllocationService) GetItemByNo(ctx context.Context, itemNo string) (*ItemResponse, error) {
	item, err := s.itemRepo.FindByItemNo(ctx, itemNo)
	if err != nil {
		return nil, err
	}
	resp := ToItemResponse(item)
	return &resp, nil
}

// DeleteItem removes an inventory item. Items with ledger rows cannot be
// deleted: stock and claims reference the item, and the audit trail must
// stay resolvable.
func (s *AllocationService) DeleteItem(ctx context.Context, id uuid.UUID) error {
	if _, err := s.itemRepo.FindByID(ctx, id); err != nil {
		return err
	}
	ledgers, err := s.stockRepo.FindByItem(ctx, id)
	if err != nil {
		return err
	}
	if len(ledgers) > 0 {
		return shared.ErrInvalidState
	}
	if err := s.itemRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// ListItems lists inventory items
func (s *AllocationService) ListItems(ctx context.Context, filter shared.Filter) (*shared.Paginated[ItemResponse], error) {
	items, err := s.itemRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.itemRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]ItemResponse, len(items))
	for i := range items {
		responses[i] = ToItemResponse(&items[i])
	}
	result := shared.NewPaginated(responses, total, filter.Page, filter.PageSize)
	return &result, nil
}

// AddStock raises a location's total for an item (receiving/replenishment)
func (s *AllocationService) AddStock(ctx context.Context, itemID uuid.UUID, req AddStockRequest) (*StockResponse, error) {
	if _, err := s.itemRepo.FindByID(ctx, itemID); err != nil {
		return nil, err
	}

	unlock := s.stockLocks.Lock(itemID, req.Location)
	defer unlock()

	var resp StockResponse
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		ls, err := repos.StockRepo().GetOrCreate(ctx, itemID, req.Location)
		if err != nil {
			return err
		}
		if err := ls.AddStock(req.Quantity); err != nil {
			return err
		}
		if err := repos.StockRepo().SaveWithLock(ctx, ls); err != nil {
			return err
		}
		resp = ToStockResponse(ls)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, itemID)
	return &resp, nil
}

// GetStock returns the ledger state for every location holding the item
func (s *AllocationService) GetStock(ctx context.Context, itemID uuid.UUID) ([]StockResponse, error) {
	if s.cache != nil {
		if stocks, ok := s.cache.GetStocks(ctx, itemID); ok {
			return stocks, nil
		}
	}

	ledgers, err := s.stockRepo.FindByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	stocks := make([]StockResponse, len(ledgers))
	for i := range ledgers {
		stocks[i] = ToStockResponse(&ledgers[i])
	}

	if s.cache != nil {
		s.cache.SetStocks(ctx, itemID, stocks)
	}
	return stocks, nil
}

// GetRequirements returns the item's project requirements ranked by urgency,
// with allocated and pending quantities derived from the current claims.
func (s *AllocationService) GetRequirements(ctx context.Context, itemID uuid.UUID) ([]RequirementResponse, error) {
	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	raw, err := s.requirementSource.FetchRequirements(ctx, item.ItemNo)
	if err != nil {
		return nil, err
	}
	ledgers, err := s.stockRepo.FindByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	requirements := deriveQuantities(raw, ledgers)
	return ToRequirementResponses(allocation.Rank(requirements)), nil
}

// Plan validates and applies an allocation plan atomically. Plans for one
// item are serialized through an item-scope lock (the pending-quantity
// bound reads every location), then every location the plan touches is
// locked in lexicographic order for the duration of the call; the ledger
// writes and audit entries commit in one transaction.
func (s *AllocationService) Plan(ctx context.Context, itemID uuid.UUID, req PlanRequest) (*PlanResponse, error) {
	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	// external call kept outside the location locks
	raw, err := s.requirementSource.FetchRequirements(ctx, item.ItemNo)
	if err != nil {
		return nil, err
	}

	domainReq := allocation.AllocationRequest{
		ItemID:      itemID,
		Remarks:     req.Remarks,
		Allocations: req.Allocations,
	}
	unlock := s.stockLocks.LockAll(itemID, domainReq.Locations())
	defer unlock()

	var result *allocation.PlanResult
	var touched []*allocation.LocationStock
	var rolledBack []shared.DomainEvent
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		ledgerList, err := repos.StockRepo().FindByItem(ctx, itemID)
		if err != nil {
			return err
		}
		ledgers := make(map[string]*allocation.LocationStock, len(ledgerList))
		for i := range ledgerList {
			ledgers[ledgerList[i].Location] = &ledgerList[i]
		}
		requirements := deriveQuantitiesFromMap(raw, ledgers)

		result, err = s.planner.Plan(ctx, domainReq, requirements, ledgers)
		if err != nil {
			// a mid-apply failure still produces a result carrying the
			// rollback event; keep it for publication after the abort
			if result != nil {
				rolledBack = result.DomainEvents
			}
			return err
		}

		touched = touched[:0]
		seen := make(map[string]struct{})
		for _, r := range result.Reservations {
			if _, ok := seen[r.Location]; ok {
				continue
			}
			seen[r.Location] = struct{}{}
			touched = append(touched, ledgers[r.Location])
		}
		for _, ls := range touched {
			if err := repos.StockRepo().SaveWithLock(ctx, ls); err != nil {
				return err
			}
		}
		return repos.AuditRepo().Append(ctx, result.AuditEntries...)
	})
	if err != nil {
		s.publishFrom(ctx, rolledBack)
		return nil, err
	}

	s.publishFrom(ctx, result.DomainEvents, touched...)
	s.invalidate(ctx, itemID)

	resp := &PlanResponse{
		CorrelationID: result.CorrelationID,
		ItemID:        itemID,
		Reservations:  result.Reservations,
		TotalQuantity: result.TotalQuantity,
		Stocks:        make([]StockResponse, len(touched)),
	}
	for i, ls := range touched {
		resp.Stocks[i] = ToStockResponse(ls)
	}
	return resp, nil
}

// Preview reports what Plan would do without mutating anything
func (s *AllocationService) Preview(ctx context.Context, itemID uuid.UUID, req PlanRequest) (*allocation.PlanPreview, error) {
	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	raw, err := s.requirementSource.FetchRequirements(ctx, item.ItemNo)
	if err != nil {
		return nil, err
	}
	ledgerList, err := s.stockRepo.FindByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	ledgers := make(map[string]*allocation.LocationStock, len(ledgerList))
	for i := range ledgerList {
		ledgers[ledgerList[i].Location] = &ledgerList[i]
	}
	domainReq := allocation.AllocationRequest{
		ItemID:      itemID,
		Remarks:     req.Remarks,
		Allocations: req.Allocations,
	}
	return s.planner.Preview(ctx, domainReq, deriveQuantitiesFromMap(raw, ledgers), ledgers), nil
}

// Reallocate moves committed claim units from their project to another
// project at the same location.
func (s *AllocationService) Reallocate(ctx context.Context, itemID uuid.UUID, req ReallocateRequest) (*ReallocationResponse, error) {
	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	// locate the owning ledger first to learn which location to lock
	located, err := s.stockRepo.FindByClaimID(ctx, req.ClaimID)
	if err != nil {
		return nil, claimLookupError(err)
	}
	if located.ItemID != itemID {
		return nil, allocation.ErrClaimNotFound
	}
	raw, err := s.requirementSource.FetchRequirements(ctx, item.ItemNo)
	if err != nil {
		return nil, err
	}

	// item-scope lock: eligibility reads the target project's pending
	// quantity, which spans every location of the item
	unlock := s.stockLocks.LockAll(itemID, []string{located.Location})
	defer unlock()

	var resp ReallocationResponse
	var ls *allocation.LocationStock
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		// reload under the lock; the claim may have moved since the lookup
		ls, err = repos.StockRepo().FindByClaimID(ctx, req.ClaimID)
		if err != nil {
			return claimLookupError(err)
		}
		if ls.ItemID != itemID {
			return allocation.ErrClaimNotFound
		}

		ledgerList, err := repos.StockRepo().FindByItem(ctx, itemID)
		if err != nil {
			return err
		}
		requirements := deriveQuantities(raw, ledgerList)

		result, err := s.reallocator.Reallocate(ctx, ls, req.ClaimID, req.TargetProject, req.Quantity, req.Remarks, requirements)
		if err != nil {
			return err
		}
		if err := repos.StockRepo().SaveWithLock(ctx, ls); err != nil {
			return err
		}
		if err := repos.AuditRepo().Append(ctx, result.AuditEntry); err != nil {
			return err
		}

		resp = ReallocationResponse{
			ItemID:          result.ItemID,
			Location:        result.Location,
			SourceProject:   result.SourceProject,
			TargetProject:   result.TargetProject,
			Quantity:        result.Quantity,
			SourceClaimID:   result.SourceClaimID,
			TargetClaimID:   result.TargetClaimID,
			SourceRemaining: result.SourceRemaining,
			Stock:           ToStockResponse(ls),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishFrom(ctx, nil, ls)
	s.invalidate(ctx, itemID)
	return &resp, nil
}

// Release returns claim units to the available pool
func (s *AllocationService) Release(ctx context.Context, itemID uuid.UUID, req ReleaseRequest) (*ReleaseResponse, error) {
	located, err := s.stockRepo.FindByClaimID(ctx, req.ClaimID)
	if err != nil {
		return nil, claimLookupError(err)
	}
	if located.ItemID != itemID {
		return nil, allocation.ErrClaimNotFound
	}

	unlock := s.stockLocks.Lock(itemID, located.Location)
	defer unlock()

	var resp ReleaseResponse
	var ls *allocation.LocationStock
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		ls, err = repos.StockRepo().FindByClaimID(ctx, req.ClaimID)
		if err != nil {
			return claimLookupError(err)
		}
		if ls.ItemID != itemID {
			return allocation.ErrClaimNotFound
		}
		if err := ls.Release(req.ClaimID, req.Quantity); err != nil {
			return err
		}
		if err := repos.StockRepo().SaveWithLock(ctx, ls); err != nil {
			return err
		}
		resp = ReleaseResponse{
			ItemID:   itemID,
			ClaimID:  req.ClaimID,
			Quantity: req.Quantity,
			Stock:    ToStockResponse(ls),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishFrom(ctx, nil, ls)
	s.invalidate(ctx, itemID)
	return &resp, nil
}

// ProjectAllocations returns the ledger state for every location where the
// project holds an active claim on the item
func (s *AllocationService) ProjectAllocations(ctx context.Context, itemID uuid.UUID, projectCode string) ([]StockResponse, error) {
	if _, err := s.itemRepo.FindByID(ctx, itemID); err != nil {
		return nil, err
	}
	ledgers, err := s.stockRepo.FindByProject(ctx, itemID, projectCode)
	if err != nil {
		return nil, err
	}
	stocks := make([]StockResponse, len(ledgers))
	for i := range ledgers {
		stocks[i] = ToStockResponse(&ledgers[i])
	}
	return stocks, nil
}

// History returns the item's audit trail ordered by timestamp ascending
func (s *AllocationService) History(ctx context.Context, itemID uuid.UUID, filter HistoryFilter) (*shared.Paginated[AuditEntryResponse], error) {
	if _, err := s.itemRepo.FindByID(ctx, itemID); err != nil {
		return nil, err
	}
	f := historyFilter(filter)
	entries, err := s.auditRepo.HistoryByItem(ctx, itemID, f)
	if err != nil {
		return nil, err
	}
	total, err := s.auditRepo.CountByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	result := shared.NewPaginated(ToAuditEntryResponses(entries), total, f.Page, f.PageSize)
	return &result, nil
}

// ProjectHistory returns a project's audit trail across all items,
// ordered by timestamp ascending
func (s *AllocationService) ProjectHistory(ctx context.Context, projectCode string, filter HistoryFilter) ([]AuditEntryResponse, error) {
	entries, err := s.auditRepo.HistoryByProject(ctx, projectCode, historyFilter(filter))
	if err != nil {
		return nil, err
	}
	return ToAuditEntryResponses(entries), nil
}

func historyFilter(filter HistoryFilter) shared.Filter {
	f := shared.DefaultFilter()
	f.OrderBy = "created_at"
	f.OrderDir = "asc"
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	return f
}

// publishFrom publishes plan-level events plus the events accumulated on the
// given aggregates. Publish failures do not fail the committed operation.
func (s *AllocationService) publishFrom(ctx context.Context, events []shared.DomainEvent, aggregates ...*allocation.LocationStock) {
	if s.eventPublisher == nil {
		for _, ls := range aggregates {
			if ls != nil {
				ls.ClearDomainEvents()
			}
		}
		return
	}
	for _, ls := range aggregates {
		if ls == nil {
			continue
		}
		events = append(events, ls.GetDomainEvents()...)
		ls.ClearDomainEvents()
	}
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
}

func (s *AllocationService) invalidate(ctx context.Context, itemID uuid.UUID) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, itemID)
	}
}

// claimLookupError maps a repository miss to the claim-specific error
func claimLookupError(err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return allocation.ErrClaimNotFound
	}
	return err
}

// deriveQuantities recomputes allocated and pending quantities from the
// item's current claims, overriding whatever the external source supplied.
func deriveQuantities(raw []allocation.ProjectRequirement, ledgers []allocation.LocationStock) []allocation.ProjectRequirement {
	allocated := make(map[string]int64)
	for i := range ledgers {
		for _, claim := range ledgers[i].Claims {
			allocated[claim.ProjectCode] += claim.Quantity
		}
	}
	return applyQuantities(raw, allocated)
}

func deriveQuantitiesFromMap(raw []allocation.ProjectRequirement, ledgers map[string]*allocation.LocationStock) []allocation.ProjectRequirement {
	allocated := make(map[string]int64)
	for _, ls := range ledgers {
		for _, claim := range ls.Claims {
			allocated[claim.ProjectCode] += claim.Quantity
		}
	}
	return applyQuantities(raw, allocated)
}

func applyQuantities(raw []allocation.ProjectRequirement, allocated map[string]int64) []allocation.ProjectRequirement {
	requirements := make([]allocation.ProjectRequirement, len(raw))
	copy(requirements, raw)
	for i := range requirements {
		requirements[i].AllocatedQuantity = allocated[requirements[i].ProjectCode]
		requirements[i].PendingQuantity = requirements[i].RequiredQuantity - requirements[i].AllocatedQuantity
	}
	return requirements
}
