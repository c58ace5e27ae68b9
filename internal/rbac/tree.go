package rbac

// DeptNode 部门树节点，来源于部门表的枚举记录
type DeptNode struct {
	ID       uint
	ParentID *uint
	Level    int
	Status   bool
}

// DeptTree 部门层级关系的内存视图，供数据权限解析使用
type DeptTree struct {
	nodes    map[uint]DeptNode
	children map[uint][]uint
}

// NewDeptTree 由部门记录构建层级视图
func NewDeptTree(nodes []DeptNode) *DeptTree {
	t := &DeptTree{
		nodes:    make(map[uint]DeptNode, len(nodes)),
		children: make(map[uint][]uint),
	}
	for _, n := range nodes {
		t.nodes[n.ID] = n
	}
	for _, n := range nodes {
		if n.ParentID != nil {
			t.children[*n.ParentID] = append(t.children[*n.ParentID], n.ID)
		}
	}
	return t
}

// ChildIDs 直接子部门（仅激活状态）
func (t *DeptTree) ChildIDs(id uint) []uint {
	var out []uint
	for _, cid := range t.children[id] {
		if t.nodes[cid].Status {
			out = append(out, cid)
		}
	}
	return out
}

// DescendantIDs 全部子孙部门
// 用访问集合防环，数据损坏出现环时也能终止并返回有限集合
func (t *DeptTree) DescendantIDs(id uint) []uint {
	visited := map[uint]bool{id: true}
	var out []uint
	stack := append([]uint(nil), t.ChildIDs(id)...)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		out = append(out, cur)
		stack = append(stack, t.ChildIDs(cur)...)
	}
	return out
}

// AllDescendantIDs 全部子孙部门，含停用节点
// 数据权限解析只看激活节点，删除前的占用校验则必须把停用节点也算进去
func (t *DeptTree) AllDescendantIDs(id uint) []uint {
	visited := map[uint]bool{id: true}
	var out []uint
	stack := append([]uint(nil), t.children[id]...)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		out = append(out, cur)
		stack = append(stack, t.children[cur]...)
	}
	return out
}

// Path 从根到指定部门的ID路径，防环
func (t *DeptTree) Path(id uint) []uint {
	var path []uint
	visited := make(map[uint]bool)
	cur, ok := t.nodes[id]
	for ok && !visited[cur.ID] {
		visited[cur.ID] = true
		path = append([]uint{cur.ID}, path...)
		if cur.ParentID == nil {
			break
		}
		cur, ok = t.nodes[*cur.ParentID]
	}
	return path
}

// Exists 部门是否存在
func (t *DeptTree) Exists(id uint) bool {
	_, ok := t.nodes[id]
	return ok
}
