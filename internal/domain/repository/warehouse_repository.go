package repository

import "github.com/jhoicas/Almacen-api/internal/domain/entity"

// WarehouseRepository define el puerto de persistencia para bodegas (modelo de
// lectura; las bodegas se administran fuera de este servicio).
type WarehouseRepository interface {
	Create(warehouse *entity.Warehouse) error
	GetByID(id string) (*entity.Warehouse, error)
	GetByCode(code string) (*entity.Warehouse, error)
	List(onlyActive bool, limit, offset int) ([]*entity.Warehouse, error)
}
