package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/application/dto"
	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// CatalogUseCase administra el modelo de lectura del catálogo: productos y
// bodegas. El catálogo es propiedad de un sistema externo; aquí solo se carga
// y consulta.
type CatalogUseCase struct {
	productRepo   repository.ProductRepository
	warehouseRepo repository.WarehouseRepository
}

// NewCatalogUseCase construye el caso de uso de catálogo.
func NewCatalogUseCase(productRepo repository.ProductRepository, warehouseRepo repository.WarehouseRepository) *CatalogUseCase {
	return &CatalogUseCase{productRepo: productRepo, warehouseRepo: warehouseRepo}
}

// CreateProduct da de alta un producto. SKU duplicado -> ErrDuplicate.
func (uc *CatalogUseCase) CreateProduct(in dto.CreateProductRequest) (*dto.ProductDTO, error) {
	if in.SKU == "" || in.Name == "" || in.UnitPrice.LessThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	product := &entity.Product{
		ID:        uuid.New().String(),
		SKU:       in.SKU,
		Name:      in.Name,
		UnitPrice: in.UnitPrice,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.productRepo.Create(product); err != nil {
		return nil, err
	}
	return toProductDTO(product), nil
}

// GetProduct obtiene un producto por ID.
func (uc *CatalogUseCase) GetProduct(id string) (*dto.ProductDTO, error) {
	product, err := uc.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return toProductDTO(product), nil
}

// GetProductBySKU obtiene un producto por SKU, el identificador que usan los
// sistemas externos.
func (uc *CatalogUseCase) GetProductBySKU(sku string) (*dto.ProductDTO, error) {
	product, err := uc.productRepo.GetBySKU(sku)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return toProductDTO(product), nil
}

// ListProducts lista el catálogo paginado.
func (uc *CatalogUseCase) ListProducts(page dto.PageRequest) ([]dto.ProductDTO, error) {
	page.DefaultPage()
	products, err := uc.productRepo.List(page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	result := make([]dto.ProductDTO, 0, len(products))
	for _, p := range products {
		result = append(result, *toProductDTO(p))
	}
	return result, nil
}

// CreateWarehouse da de alta una bodega. Código duplicado -> ErrDuplicate.
func (uc *CatalogUseCase) CreateWarehouse(in dto.CreateWarehouseRequest) (*dto.WarehouseDTO, error) {
	if in.Code == "" || in.Name == "" || in.Priority < 0 {
		return nil, domain.ErrInvalidInput
	}
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	now := time.Now()
	warehouse := &entity.Warehouse{
		ID:        uuid.New().String(),
		Code:      in.Code,
		Name:      in.Name,
		Active:    active,
		Priority:  in.Priority,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.warehouseRepo.Create(warehouse); err != nil {
		return nil, err
	}
	return toWarehouseDTO(warehouse), nil
}

// GetWarehouseByCode obtiene una bodega por código.
func (uc *CatalogUseCase) GetWarehouseByCode(code string) (*dto.WarehouseDTO, error) {
	warehouse, err := uc.warehouseRepo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if warehouse == nil {
		return nil, domain.ErrNotFound
	}
	return toWarehouseDTO(warehouse), nil
}

// ListWarehouses lista bodegas, opcionalmente solo las activas.
func (uc *CatalogUseCase) ListWarehouses(onlyActive bool, page dto.PageRequest) ([]dto.WarehouseDTO, error) {
	page.DefaultPage()
	warehouses, err := uc.warehouseRepo.List(onlyActive, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	result := make([]dto.WarehouseDTO, 0, len(warehouses))
	for _, w := range warehouses {
		result = append(result, *toWarehouseDTO(w))
	}
	return result, nil
}

func toProductDTO(p *entity.Product) *dto.ProductDTO {
	return &dto.ProductDTO{
		ID:        p.ID,
		SKU:       p.SKU,
		Name:      p.Name,
		UnitPrice: p.UnitPrice,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func toWarehouseDTO(w *entity.Warehouse) *dto.WarehouseDTO {
	return &dto.WarehouseDTO{
		ID:        w.ID,
		Code:      w.Code,
		Name:      w.Name,
		Active:    w.Active,
		Priority:  w.Priority,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}
