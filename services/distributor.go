package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/boozebuddy/backend/models"
	"github.com/boozebuddy/backend/pkg/slug"
	"github.com/boozebuddy/backend/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultDistributionConcurrency = 8
	EventQRDistributed             = "qr.distributed"
)

type DistributorConfig struct {
	PublicBaseURL string
	Concurrency   int
	// TopicArn receives a qr.distributed event per distribution; empty disables it.
	TopicArn string
}

// Distributor fans a supplier's products out to stores: one ledger
// assignment plus one SVG and one info.json per (product, store) pair.
type Distributor struct {
	ledger   *Ledger
	products repository.ProductRepo
	users    repository.UserRepo
	blobs    BlobStore
	renderer QRRenderer
	events   EventPublisher
	cfg      DistributorConfig
	log      *zap.Logger
}

func NewDistributor(
	ledger *Ledger,
	products repository.ProductRepo,
	users repository.UserRepo,
	blobs BlobStore,
	renderer QRRenderer,
	events EventPublisher,
	cfg DistributorConfig,
	log *zap.Logger,
) *Distributor {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultDistributionConcurrency
	}
	return &Distributor{
		ledger:   ledger,
		products: products,
		users:    users,
		blobs:    blobs,
		renderer: renderer,
		events:   events,
		cfg:      cfg,
		log:      log,
	}
}

// storeTarget is a store manager resolved into everything an artifact needs.
type storeTarget struct {
	userID uuid.UUID
	id     slug.StoreSlug
	info   models.QRInfo // product fields left empty
}

// pairTask is one unit of fan-out work. A non-nil err means the pair failed
// before reaching the worker (bad product or store).
type pairTask struct {
	product *models.Product
	store   *storeTarget
	ref     models.PairRef
	label   string
	err     error
}

type pairOutcome struct {
	generated bool
	skipped   bool
	failure   *models.PairFailure
}

// Distribute processes products × stores, outer loop over products. A pair
// whose store is already assigned is skipped without writes. A product that
// is missing or not owned by supplier fails only its own pairs; an artifact
// write failure fails only its pair.
func (d *Distributor) Distribute(ctx context.Context, supplier *models.User, productIDs, storeUserIDs []uuid.UUID) (*models.DistributionReport, error) {
	if err := checkSupplier(supplier); err != nil {
		return nil, err
	}
	productIDs = uniqueIDs(productIDs)
	storeUserIDs = uniqueIDs(storeUserIDs)
	if len(productIDs) == 0 {
		return nil, invalid("productIds", "at least one product is required")
	}
	if len(storeUserIDs) == 0 {
		return nil, invalid("storeIds", "at least one store is required")
	}
	start := time.Now()
	defer func() { distributionDuration.WithLabelValues("distribute").Observe(time.Since(start).Seconds()) }()

	stores, err := d.resolveStores(ctx, storeUserIDs)
	if err != nil {
		return nil, err
	}

	tasks := make([]pairTask, 0, len(productIDs)*len(storeUserIDs))
	for _, pid := range productIDs {
		product, perr := d.ownedProduct(ctx, supplier, pid)
		for _, sid := range storeUserIDs {
			store, serr := stores[sid], storeErr(stores[sid], sid)
			t := pairTask{product: product, store: store, ref: models.PairRef{ProductID: pid, StoreUserID: sid}, label: pid.String()}
			if product != nil {
				t.label = product.Name
			}
			if store != nil {
				t.ref.StoreID = store.id.String()
			}
			t.err = errors.Join(perr, serr)
			tasks = append(tasks, t)
		}
	}

	report := d.run(ctx, supplier, tasks, d.distributePair)
	d.publish(ctx, supplier, report)
	return report, nil
}

// Repair rewrites the artifacts of pairs that are assigned in the ledger but
// whose SVG or info.json is missing, typically the failures of an earlier
// Distribute. Pairs with both artifacts present are reported as skipped.
func (d *Distributor) Repair(ctx context.Context, supplier *models.User, pairs []models.PairRef) (*models.DistributionReport, error) {
	if err := checkSupplier(supplier); err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, invalid("pairs", "at least one pair is required")
	}
	start := time.Now()
	defer func() { distributionDuration.WithLabelValues("repair").Observe(time.Since(start).Seconds()) }()

	storeIDs := make([]uuid.UUID, 0, len(pairs))
	for _, p := range pairs {
		storeIDs = append(storeIDs, p.StoreUserID)
	}
	stores, err := d.resolveStores(ctx, uniqueIDs(storeIDs))
	if err != nil {
		return nil, err
	}

	type productResult struct {
		product *models.Product
		err     error
	}
	loaded := make(map[uuid.UUID]productResult)
	seen := make(map[models.PairRef]bool)
	tasks := make([]pairTask, 0, len(pairs))
	for _, p := range pairs {
		key := models.PairRef{ProductID: p.ProductID, StoreUserID: p.StoreUserID}
		if seen[key] {
			continue
		}
		seen[key] = true

		res, ok := loaded[p.ProductID]
		if !ok {
			res.product, res.err = d.ownedProduct(ctx, supplier, p.ProductID)
			loaded[p.ProductID] = res
		}
		store := stores[p.StoreUserID]
		t := pairTask{product: res.product, store: store, ref: key, label: p.ProductID.String()}
		if res.product != nil {
			t.label = res.product.Name
		}
		if store != nil {
			t.ref.StoreID = store.id.String()
		}
		t.err = errors.Join(res.err, storeErr(store, p.StoreUserID))
		if t.err == nil {
			if _, assigned := res.product.Assignment(store.id); !assigned {
				t.err = fmt.Errorf("product %s at %s: %w", res.product.Name, store.id, ErrNotAssigned)
			}
		}
		tasks = append(tasks, t)
	}

	report := d.run(ctx, supplier, tasks, d.repairPair)
	d.publish(ctx, supplier, report)
	return report, nil
}

type pairFunc func(ctx context.Context, supplier *models.User, t pairTask) pairOutcome

// run executes tasks on a bounded pool. Workers never cancel each other;
// outcomes are collected by index so the report follows task order.
func (d *Distributor) run(ctx context.Context, supplier *models.User, tasks []pairTask, fn pairFunc) *models.DistributionReport {
	outcomes := make([]pairOutcome, len(tasks))

	var g errgroup.Group
	g.SetLimit(d.cfg.Concurrency)
	for i := range tasks {
		if tasks[i].err != nil {
			outcomes[i] = pairOutcome{failure: d.fail(tasks[i], models.StageAssign, tasks[i].err)}
			continue
		}
		i := i
		g.Go(func() error {
			outcomes[i] = fn(ctx, supplier, tasks[i])
			return nil
		})
	}
	_ = g.Wait()

	report := &models.DistributionReport{
		Requested: len(tasks),
		Pairs:     []models.PairRef{},
		Skipped:   []models.PairRef{},
		Failures:  []models.PairFailure{},
	}
	for i, o := range outcomes {
		switch {
		case o.generated:
			report.Generated++
			report.Pairs = append(report.Pairs, tasks[i].ref)
		case o.skipped:
			report.Skipped = append(report.Skipped, tasks[i].ref)
		case o.failure != nil:
			report.Failures = append(report.Failures, *o.failure)
		}
	}
	report.Message = report.Summary()

	qrGenerated.Add(float64(report.Generated))
	qrSkipped.Add(float64(len(report.Skipped)))
	d.log.Info("QR distribution finished",
		zap.String("supplier_id", supplier.ID.String()),
		zap.Int("requested", report.Requested),
		zap.Int("generated", report.Generated),
		zap.Int("skipped", len(report.Skipped)),
		zap.Int("failed", len(report.Failures)),
	)
	return report
}

func (d *Distributor) distributePair(ctx context.Context, supplier *models.User, t pairTask) pairOutcome {
	err := d.ledger.Assign(ctx, t.product.ID, t.store.id)
	if errors.Is(err, ErrAlreadyAssigned) {
		return pairOutcome{skipped: true}
	}
	if err != nil {
		return pairOutcome{failure: d.fail(t, models.StageAssign, err)}
	}
	if stage, err := d.writeArtifacts(ctx, supplier, t); err != nil {
		return pairOutcome{failure: d.fail(t, stage, err)}
	}
	return pairOutcome{generated: true}
}

func (d *Distributor) repairPair(ctx context.Context, supplier *models.User, t pairTask) pairOutcome {
	sup := supplierSlug(supplier)
	complete := true
	for _, key := range []string{svgKey(sup, t.store.id, t.product.Slug), infoKey(sup, t.store.id, t.product.Slug)} {
		ok, err := d.blobs.Exists(ctx, key)
		if err != nil {
			return pairOutcome{failure: d.fail(t, models.StageSVG, &StorageError{Op: "check artifact", Err: err})}
		}
		complete = complete && ok
	}
	if complete {
		return pairOutcome{skipped: true}
	}
	if stage, err := d.writeArtifacts(ctx, supplier, t); err != nil {
		return pairOutcome{failure: d.fail(t, stage, err)}
	}
	return pairOutcome{generated: true}
}

// writeArtifacts renders and stores the SVG, then info.json. It reports the
// stage that failed.
func (d *Distributor) writeArtifacts(ctx context.Context, supplier *models.User, t pairTask) (string, error) {
	sup := supplierSlug(supplier)
	productSlug := t.product.Slug

	svgBytes, err := d.renderer.Render(qrTargetURL(d.cfg.PublicBaseURL, sup, t.store.id, productSlug))
	if err != nil {
		return models.StageRender, err
	}
	if err := d.blobs.Put(ctx, svgKey(sup, t.store.id, productSlug), svgBytes, contentTypeSVG); err != nil {
		return models.StageSVG, &StorageError{Op: "write svg", Err: err}
	}

	info := t.store.info
	info.ProductName = productSlug
	info.SupplierName = sup
	if err := putJSON(ctx, d.blobs, infoKey(sup, t.store.id, productSlug), info); err != nil {
		return models.StageInfo, &StorageError{Op: "write info.json", Err: err}
	}
	return "", nil
}

func (d *Distributor) fail(t pairTask, stage string, err error) *models.PairFailure {
	qrFailed.WithLabelValues(stage).Inc()
	d.log.Warn("QR pair failed",
		zap.String("product_id", t.ref.ProductID.String()),
		zap.String("store_user_id", t.ref.StoreUserID.String()),
		zap.String("store_id", t.ref.StoreID),
		zap.String("stage", stage),
		zap.Error(err),
	)
	return &models.PairFailure{
		ProductID:   t.ref.ProductID,
		Product:     t.label,
		StoreUserID: t.ref.StoreUserID,
		StoreID:     t.ref.StoreID,
		Stage:       stage,
		Error:       err.Error(),
	}
}

func (d *Distributor) publish(ctx context.Context, supplier *models.User, report *models.DistributionReport) {
	if d.events == nil || d.cfg.TopicArn == "" || report.Generated == 0 {
		return
	}
	event := models.DistributedEvent{
		SupplierID:   supplier.ID,
		SupplierSlug: supplierSlug(supplier),
		Generated:    report.Pairs,
		OccurredAt:   time.Now().UTC(),
	}
	if err := d.events.Publish(ctx, d.cfg.TopicArn, EventQRDistributed, event); err != nil {
		d.log.Error("Failed to publish distribution event", zap.Error(err))
	}
}

// ownedProduct loads a product and checks it belongs to supplier. A product
// owned by someone else is reported as not found.
func (d *Distributor) ownedProduct(ctx context.Context, supplier *models.User, id uuid.UUID) (*models.Product, error) {
	product, err := d.products.FindByID(ctx, id)
	if err != nil {
		return nil, fromRepo("find product", "product "+id.String(), err)
	}
	if product.UserID != supplier.ID {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	if product.Slug == "" {
		product.Slug = slug.Slugify(product.Name)
	}
	return product, nil
}

// resolveStores loads store managers by user id. Ids that do not resolve to
// a store manager are simply absent from the result.
func (d *Distributor) resolveStores(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*storeTarget, error) {
	users, err := d.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fromRepo("find stores", "stores", err)
	}
	out := make(map[uuid.UUID]*storeTarget, len(users))
	for _, u := range users {
		if u.Role != models.RoleStoreManager || u.Store == nil {
			continue
		}
		id, err := slug.NewStoreSlug(u.Store.StoreName, u.Store.StoreNumber)
		if err != nil {
			d.log.Warn("Store manager has incomplete store details", zap.String("user_id", u.ID.String()))
			continue
		}
		out[u.ID] = &storeTarget{
			userID: u.ID,
			id:     id,
			info: models.QRInfo{
				StoreUsername: slug.Slugify(u.Name),
				StoreName:     slug.Slugify(u.Store.StoreName),
				StoreNumber:   u.Store.StoreNumber,
			},
		}
	}
	return out, nil
}

func storeErr(t *storeTarget, id uuid.UUID) error {
	if t == nil {
		return fmt.Errorf("store %s: %w", id, ErrNotFound)
	}
	return nil
}

func checkSupplier(u *models.User) error {
	if u == nil || u.ID == uuid.Nil {
		return invalid("supplier", "required")
	}
	if u.Role != models.RoleSupplier {
		return invalid("supplier", "user is not a supplier")
	}
	if supplierSlug(u) == "" {
		return invalid("supplier", "name is required")
	}
	return nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
